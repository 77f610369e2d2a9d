package tag

import (
	"context"
	"fmt"
	"strings"

	"github.com/w-h-a/memory/internal/service/memory"
	toolhandler "github.com/w-h-a/memory/tool_handler"
	getsafe "github.com/w-h-a/memory/util/get_safe"
)

type tagToolHandler struct {
	options toolhandler.Options
	service *memory.Service
}

func (th *tagToolHandler) Spec() toolhandler.ToolSpec {
	return toolhandler.ToolSpec{
		Name:        "search_by_tag",
		Description: "Find memories carrying at least one of the given tags.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tags": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Tags to match; a memory matches if it has any of them.",
				},
			},
			"required": []string{"tags"},
		},
	}
}

func (th *tagToolHandler) Invoke(ctx context.Context, req toolhandler.ToolRequest) (toolhandler.ToolResponse, error) {
	tags := getsafe.Strings(req.Arguments, "tags")
	if len(tags) == 0 {
		return toolhandler.ToolResponse{
			Content: "No tags provided for search.",
			IsError: true,
		}, nil
	}

	memories, err := th.service.SearchByTag(ctx, tags)
	if err != nil {
		return toolhandler.ToolResponse{}, err
	}

	if len(memories) == 0 {
		return toolhandler.ToolResponse{Content: "No memories found with the specified tags"}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d memories with tags %v:\n", len(memories), tags)

	for i, mem := range memories {
		fmt.Fprintf(
			&sb,
			"Memory %d:\nContent: %s\nHash: %s\nTags: %v\n---\n",
			i+1,
			mem.Content,
			mem.ContentHash,
			mem.Tags,
		)
	}

	return toolhandler.ToolResponse{Content: strings.TrimSuffix(sb.String(), "\n")}, nil
}

func NewToolHandler(opts ...toolhandler.Option) toolhandler.ToolHandler {
	options := toolhandler.NewOptions(opts...)

	th := &tagToolHandler{
		options: options,
	}

	if svc, ok := toolhandler.ServiceFrom(options.Context); ok {
		th.service = svc
	}

	return th
}
