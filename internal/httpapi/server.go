package httpapi

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Server exposes the study-aid API plus the static UI.
type Server struct {
	orchestrator Orchestrator

	uiEnabled bool
	uiFS      fs.FS

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

// WithUI serves the embedded web UI from the given filesystem.
func WithUI(staticFS fs.FS, enabled bool) Option {
	return func(s *Server) {
		s.uiFS = staticFS
		s.uiEnabled = enabled
	}
}

func NewServer(orchestrator Orchestrator, opts ...Option) *Server {
	s := &Server{
		orchestrator: orchestrator,
		uiEnabled:    false,
		mux:          http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/questions", s.handleListQuestions)
	s.mux.HandleFunc("/api/questions/", s.handleQuestionSubresource)
	s.mux.HandleFunc("/api/cache/stats", s.handleCacheStats)
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiFS == nil {
		http.NotFound(w, r)
		return
	}
	if r.URL.Path == "/" {
		http.ServeFileFS(w, r, s.uiFS, "index.html")
		return
	}
	http.FileServerFS(s.uiFS).ServeHTTP(w, r)
}
