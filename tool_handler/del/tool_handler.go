package del

import (
	"context"
	"fmt"

	"github.com/w-h-a/memory/internal/service/memory"
	toolhandler "github.com/w-h-a/memory/tool_handler"
)

type deleteToolHandler struct {
	options toolhandler.Options
	service *memory.Service
}

func (th *deleteToolHandler) Spec() toolhandler.ToolSpec {
	return toolhandler.ToolSpec{
		Name:        "delete_memory",
		Description: "Delete a memory by its content hash.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content_hash": map[string]any{
					"type":        "string",
					"description": "Identity hash of the memory to delete.",
				},
			},
			"required": []string{"content_hash"},
		},
	}
}

func (th *deleteToolHandler) Invoke(ctx context.Context, req toolhandler.ToolRequest) (toolhandler.ToolResponse, error) {
	raw, ok := req.Arguments["content_hash"]
	if !ok {
		return toolhandler.ToolResponse{}, fmt.Errorf("missing 'content_hash' argument")
	}

	contentHash, ok := raw.(string)
	if !ok {
		return toolhandler.ToolResponse{}, fmt.Errorf("argument 'content_hash' has invalid type: expected string, got %T", raw)
	}

	removed, message, err := th.service.Delete(ctx, contentHash)
	if err != nil {
		return toolhandler.ToolResponse{}, err
	}

	return toolhandler.ToolResponse{
		Content: message,
		IsError: !removed,
	}, nil
}

func NewToolHandler(opts ...toolhandler.Option) toolhandler.ToolHandler {
	options := toolhandler.NewOptions(opts...)

	th := &deleteToolHandler{
		options: options,
	}

	if svc, ok := toolhandler.ServiceFrom(options.Context); ok {
		th.service = svc
	}

	return th
}
