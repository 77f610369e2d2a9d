package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/memory/memory_store/providers/embedder"
	"github.com/w-h-a/memory/server"
	toolhandler "github.com/w-h-a/memory/tool_handler"
)

// echoToolHandler answers with whatever behavior the test configures.
type echoToolHandler struct {
	name string
	rsp  toolhandler.ToolResponse
	err  error
}

func (th *echoToolHandler) Spec() toolhandler.ToolSpec {
	return toolhandler.ToolSpec{Name: th.name, Description: "test tool"}
}

func (th *echoToolHandler) Invoke(ctx context.Context, req toolhandler.ToolRequest) (toolhandler.ToolResponse, error) {
	if th.err != nil {
		return toolhandler.ToolResponse{}, th.err
	}
	return th.rsp, nil
}

func newTestHandler(t *testing.T, handlers map[string]toolhandler.ToolHandler, opts ...server.Option) http.Handler {
	t.Helper()

	s, ok := NewServer(handlers, opts...).(*httpServer)
	require.True(t, ok)

	return s.srv.Handler
}

func invoke(t *testing.T, h http.Handler, tool string, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/tools/"+tool, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, map[string]toolhandler.ToolHandler{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListTools(t *testing.T) {
	h := newTestHandler(t, map[string]toolhandler.ToolHandler{
		"alpha": &echoToolHandler{name: "alpha"},
		"beta":  &echoToolHandler{name: "beta"},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/tools", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tools []toolhandler.ToolSpec `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Tools, 2)
}

func TestInvoke_Success(t *testing.T) {
	h := newTestHandler(t, map[string]toolhandler.ToolHandler{
		"echo": &echoToolHandler{
			name: "echo",
			rsp:  toolhandler.ToolResponse{Content: "stored"},
		},
	})

	rec := invoke(t, h, "echo", `{"arguments":{"content":"hi"}}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var rsp toolhandler.ToolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	assert.Equal(t, "stored", rsp.Content)
	assert.False(t, rsp.IsError)
}

func TestInvoke_RecoverableOutcomeIsStill200(t *testing.T) {
	h := newTestHandler(t, map[string]toolhandler.ToolHandler{
		"echo": &echoToolHandler{
			name: "echo",
			rsp:  toolhandler.ToolResponse{Content: "Duplicate content detected", IsError: true},
		},
	})

	rec := invoke(t, h, "echo", `{"arguments":{}}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var rsp toolhandler.ToolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	assert.True(t, rsp.IsError)
}

func TestInvoke_UnknownTool(t *testing.T) {
	h := newTestHandler(t, map[string]toolhandler.ToolHandler{})

	rec := invoke(t, h, "missing", `{"arguments":{}}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown tool")
}

func TestInvoke_BadBody(t *testing.T) {
	h := newTestHandler(t, map[string]toolhandler.ToolHandler{
		"echo": &echoToolHandler{name: "echo"},
	})

	rec := invoke(t, h, "echo", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvoke_FailureStatuses(t *testing.T) {
	h := newTestHandler(t, map[string]toolhandler.ToolHandler{
		"broken": &echoToolHandler{
			name: "broken",
			err:  errors.New("storage unreachable"),
		},
		"unembeddable": &echoToolHandler{
			name: "unembeddable",
			err:  fmt.Errorf("%w: model offline", embedder.ErrEmbedding),
		},
	})

	rec := invoke(t, h, "broken", `{"arguments":{}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "storage unreachable")

	rec = invoke(t, h, "unembeddable", `{"arguments":{}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRequestID(t *testing.T) {
	h := newTestHandler(t, map[string]toolhandler.ToolHandler{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	// caller-provided ids are echoed back
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestMiddleware(t *testing.T) {
	var order []string

	mw := func(label string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, label)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := newTestHandler(
		t,
		map[string]toolhandler.ToolHandler{},
		WithMiddleware(mw("first"), mw("second")),
	)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "first,second", strings.Join(order, ","))
}
