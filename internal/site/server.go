package site

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vietddude/guildhall/internal/health"
)

// Server serves guild pages alongside the health and metrics endpoints.
type Server struct {
	server *http.Server
}

// NewServer creates the HTTP server for s.
func NewServer(s *Site, monitor *health.Monitor, port int) *Server {
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           s.Handler(monitor),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the full route tree wrapped in the request middleware.
func (s *Site) Handler(monitor *health.Monitor) http.Handler {
	mux := http.NewServeMux()
	s.Routes(mux)
	if monitor != nil {
		health.Register(mux, monitor)
	}
	return withRequestLog(s.log, mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
