package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/w-h-a/memory/internal/service/memory"
	toolhandler "github.com/w-h-a/memory/tool_handler"
)

type retrieveToolHandler struct {
	options toolhandler.Options
	service *memory.Service
}

func (th *retrieveToolHandler) Spec() toolhandler.ToolSpec {
	return toolhandler.ToolSpec{
		Name:        "retrieve_memory",
		Description: "Retrieve memories semantically similar to the query.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Text to search for.",
				},
				"n_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results (default 5).",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (th *retrieveToolHandler) Invoke(ctx context.Context, req toolhandler.ToolRequest) (toolhandler.ToolResponse, error) {
	raw, ok := req.Arguments["query"]
	if !ok {
		return toolhandler.ToolResponse{}, fmt.Errorf("missing 'query' argument")
	}

	query, ok := raw.(string)
	if !ok {
		return toolhandler.ToolResponse{}, fmt.Errorf("argument 'query' has invalid type: expected string, got %T", raw)
	}

	topN := 0
	if n, ok := req.Arguments["n_results"].(float64); ok {
		topN = int(n)
	}

	results, err := th.service.Retrieve(ctx, query, topN)
	if err != nil {
		return toolhandler.ToolResponse{}, err
	}

	if len(results) == 0 {
		return toolhandler.ToolResponse{Content: "No matching memories found"}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d memories:\n", len(results))

	for i, res := range results {
		fmt.Fprintf(
			&sb,
			"Memory %d:\nContent: %s\nHash: %s\nScore: %.4f\nTags: %v\n---\n",
			i+1,
			res.Memory.Content,
			res.Memory.ContentHash,
			res.RelevanceScore,
			res.Memory.Tags,
		)
	}

	return toolhandler.ToolResponse{Content: strings.TrimSuffix(sb.String(), "\n")}, nil
}

func NewToolHandler(opts ...toolhandler.Option) toolhandler.ToolHandler {
	options := toolhandler.NewOptions(opts...)

	th := &retrieveToolHandler{
		options: options,
	}

	if svc, ok := toolhandler.ServiceFrom(options.Context); ok {
		th.service = svc
	}

	return th
}
