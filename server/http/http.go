package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/w-h-a/memory/memory_store/providers/embedder"
	"github.com/w-h-a/memory/server"
	toolhandler "github.com/w-h-a/memory/tool_handler"
)

// httpServer exposes registered tool handlers as request/response
// operations: POST /v1/tools/{name} invokes one tool and returns one
// structured result. Recoverable outcomes (duplicate, not found) come
// back as 200s with is_error set; only transport, storage, and
// embedding failures produce failure status codes.
type httpServer struct {
	options  server.Options
	handlers map[string]toolhandler.ToolHandler
	srv      *http.Server
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *httpServer) Run() error {
	slog.InfoContext(s.options.Context, "starting http server", "address", s.options.Address)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *httpServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *httpServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *httpServer) handleListTools(w http.ResponseWriter, r *http.Request) {
	specs := make([]toolhandler.ToolSpec, 0, len(s.handlers))
	for _, th := range s.handlers {
		specs = append(specs, th.Spec())
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": specs})
}

func (s *httpServer) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	th, exists := s.handlers[name]
	if !exists {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown tool: " + name})
		return
	}

	var req toolhandler.ToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	rsp, err := th.Invoke(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "tool invocation failed", "tool", name, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, embedder.ErrEmbedding) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, rsp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func requestID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if len(id) == 0 {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		h.ServeHTTP(w, r)
	})
}

func NewServer(handlers map[string]toolhandler.ToolHandler, opts ...server.Option) server.Server {
	options := server.NewOptions(opts...)

	s := &httpServer{
		options:  options,
		handlers: handlers,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/v1/tools", s.handleListTools).Methods(http.MethodGet)
	router.HandleFunc("/v1/tools/{name}", s.handleInvoke).Methods(http.MethodPost)

	var handler http.Handler = router
	handler = requestID(handler)

	if ms, ok := MiddlewareFrom(options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			handler = ms[i](handler)
		}
	}

	s.srv = &http.Server{
		Addr:    options.Address,
		Handler: handler,
	}

	return s
}
