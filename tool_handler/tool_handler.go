package toolhandler

import "context"

// ToolHandler is one callable operation behind the request/response
// tool surface: one request in, one structured result out.
type ToolHandler interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

type ToolRequest struct {
	Arguments map[string]any `json:"arguments"`
}

// ToolResponse carries either a normal result or, with IsError set, a
// recoverable outcome such as a duplicate or a missing hash. Transport
// and embedding failures are returned as errors instead.
type ToolResponse struct {
	Content  string            `json:"content"`
	IsError  bool              `json:"is_error,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
