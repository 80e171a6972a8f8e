// If you are AI: This file implements the HTTP server lifecycle and routing.

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"dataflow/internal/config"
	"dataflow/internal/observability"

	"github.com/rs/zerolog/log"
)

// Routes is implemented by every service mounted on the server mux.
type Routes interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New creates a new server instance with the given configuration and services.
// The server is not started until Start is called.
func New(cfg *config.Config, services ...Routes) *Server {
	mux := http.NewServeMux()
	for _, svc := range services {
		svc.RegisterRoutes(mux)
	}

	logger := log.With().Str("component", "server").Logger()
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           observability.RequestLogger(logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		httpServer:      httpServer,
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Millisecond,
	}
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving HTTP requests.
// This method blocks until the server is stopped or encounters an error.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	return s.httpServer.ListenAndServe()
}

// Serve serves HTTP requests on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	return s.httpServer.Serve(l)
}

// Shutdown gracefully stops the server.
// Returns an error if shutdown fails or ctx expires first.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ShutdownWithTimeout stops the server within the configured shutdown budget.
// This is a convenience wrapper around Shutdown.
func (s *Server) ShutdownWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}
