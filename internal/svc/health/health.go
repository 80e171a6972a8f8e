// If you are AI: This file implements the health check endpoints for monitoring and integration tests.

package health

import (
	"net/http"
)

// ReadyFunc reports whether the process is ready to serve traffic.
type ReadyFunc func() bool

// Service provides health check functionality.
type Service struct {
	ready ReadyFunc
}

// New creates a new health service instance.
// A nil ready function reports ready whenever the process is alive.
func New(ready ReadyFunc) *Service {
	return &Service{ready: ready}
}

// RegisterRoutes adds health check routes to the provided mux.
// Registers /healthz (liveness) and /readyz (configured links are live).
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
}

// handleHealth responds to health check requests.
// Returns 200 OK to indicate the server is running.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleReady returns 200 when ready and 503 otherwise.
func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.ready != nil && !s.ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
