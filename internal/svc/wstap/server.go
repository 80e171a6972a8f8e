// If you are AI: This file provides WebSocket tap service integration.
// The service is integrated into the main HTTP server.

package wstap

import (
	"net/http"

	"dataflow/internal/core/flow"
)

// Service provides WebSocket frame taps on sender ports.
type Service struct {
	handler *Handler
}

// NewService creates a new WebSocket tap service.
// defaultCapacity is the tap queue capacity when the request names none.
func NewService(registry *flow.Registry, defaultCapacity int) *Service {
	return &Service{
		handler: NewHandler(registry, defaultCapacity),
	}
}

// RegisterRoutes registers WebSocket tap routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.handler.RegisterRoutes(mux)
}
