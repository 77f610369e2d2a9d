package store

import (
	"context"
	"fmt"

	"github.com/w-h-a/memory/internal/service/memory"
	toolhandler "github.com/w-h-a/memory/tool_handler"
	getsafe "github.com/w-h-a/memory/util/get_safe"
)

type storeToolHandler struct {
	options toolhandler.Options
	service *memory.Service
}

func (th *storeToolHandler) Spec() toolhandler.ToolSpec {
	return toolhandler.ToolSpec{
		Name:        "store_memory",
		Description: "Store a new memory with optional tags, type, and metadata. Duplicate content is rejected.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content": map[string]any{
					"type":        "string",
					"description": "The memory body to store.",
				},
				"tags": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Free-form labels for exact-match search.",
				},
				"memory_type": map[string]any{
					"type":        "string",
					"description": "Optional free-form category.",
				},
				"metadata": map[string]any{
					"type":        "object",
					"description": "User key/value pairs; part of the memory's identity.",
				},
			},
			"required": []string{"content"},
		},
	}
}

func (th *storeToolHandler) Invoke(ctx context.Context, req toolhandler.ToolRequest) (toolhandler.ToolResponse, error) {
	raw, ok := req.Arguments["content"]
	if !ok {
		return toolhandler.ToolResponse{}, fmt.Errorf("missing 'content' argument")
	}

	content, ok := raw.(string)
	if !ok {
		return toolhandler.ToolResponse{}, fmt.Errorf("argument 'content' has invalid type: expected string, got %T", raw)
	}

	tags := getsafe.Strings(req.Arguments, "tags")
	memoryType := getsafe.String(req.Arguments, "memory_type")

	metadata := map[string]string{}
	if raw, ok := req.Arguments["metadata"]; ok {
		m, ok := raw.(map[string]any)
		if !ok {
			return toolhandler.ToolResponse{}, fmt.Errorf("argument 'metadata' has invalid type: expected object, got %T", raw)
		}
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				// metadata feeds the content hash, so dropping a value
				// would silently change the memory's identity
				return toolhandler.ToolResponse{}, fmt.Errorf("metadata value '%s' has invalid type: expected string, got %T", k, v)
			}
			metadata[k] = s
		}
	}

	accepted, message, err := th.service.Store(ctx, content, tags, memoryType, metadata)
	if err != nil {
		return toolhandler.ToolResponse{}, err
	}

	return toolhandler.ToolResponse{
		Content: message,
		IsError: !accepted,
	}, nil
}

func NewToolHandler(opts ...toolhandler.Option) toolhandler.ToolHandler {
	options := toolhandler.NewOptions(opts...)

	th := &storeToolHandler{
		options: options,
	}

	if svc, ok := toolhandler.ServiceFrom(options.Context); ok {
		th.service = svc
	}

	return th
}
