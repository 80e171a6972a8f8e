// If you are AI: This file implements HTTP API handlers.
// All handlers are fast and never hold port locks across a response write.

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"

	"dataflow/internal/config"
	"dataflow/internal/core/flow"
	"dataflow/internal/svc/blocks"
)

// ServerResponse represents the /api/server response.
type ServerResponse struct {
	Version         string   `json:"version"`
	Uptime          int64    `json:"uptime"` // seconds
	GoVersion       string   `json:"go_version"`
	EnabledServices []string `json:"enabled_services"`
}

// PortsResponse represents the /api/ports response.
type PortsResponse struct {
	Ports []flow.PortInfo `json:"ports"`
}

// LinksResponse represents the GET /api/links response.
type LinksResponse struct {
	Links []flow.LinkInfo `json:"links"`
}

// LinkRequest is the POST /api/links body.
type LinkRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Capacity int    `json:"capacity"`
}

// DisconnectResponse represents the DELETE /api/links response.
type DisconnectResponse struct {
	Drained int `json:"drained"`
}

// BlocksResponse represents the /api/blocks response.
type BlocksResponse struct {
	Blocks []blocks.Info `json:"blocks"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleServer handles GET /api/server.
// Returns server version, uptime, and enabled services.
func (s *Service) handleServer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	response := ServerResponse{
		Version:   Version,
		Uptime:    getCurrentTime() - s.startTime,
		GoVersion: runtime.Version(),
		EnabledServices: []string{
			"blocks",
			"ws_tap",
			"metrics",
		},
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handlePorts handles GET /api/ports.
func (s *Service) handlePorts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, PortsResponse{Ports: s.registry.Ports()})
}

// handleBlocks handles GET /api/blocks.
func (s *Service) handleBlocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	infos := []blocks.Info{}
	if s.blockMgr != nil {
		infos = s.blockMgr.Blocks()
	}
	s.writeJSON(w, http.StatusOK, BlocksResponse{Blocks: infos})
}

// handleLinks dispatches /api/links by method.
func (s *Service) handleLinks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, LinksResponse{Links: s.registry.Links()})
	case http.MethodPost:
		s.handleConnect(w, r)
	case http.MethodDelete:
		s.handleDisconnect(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleConnect handles POST /api/links.
func (s *Service) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	src, dst, ok := s.parsePair(w, req.From, req.To)
	if !ok {
		return
	}
	if err := s.registry.Connect(src, dst, req.Capacity); err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "linked"})
}

// handleDisconnect handles DELETE /api/links?from=&to=.
func (s *Service) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	src, dst, ok := s.parsePair(w, query.Get("from"), query.Get("to"))
	if !ok {
		return
	}
	if !s.registry.HasLink(src, dst) {
		s.writeError(w, http.StatusNotFound, "link not found")
		return
	}
	drained, err := s.registry.Disconnect(src, dst)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, DisconnectResponse{Drained: drained})
}

// parsePair parses two "block/port" references, writing a 400 on failure.
func (s *Service) parsePair(w http.ResponseWriter, from, to string) (flow.PortID, flow.PortID, bool) {
	fromBlock, fromPort, err := config.ParsePortRef(from)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return flow.PortID{}, flow.PortID{}, false
	}
	toBlock, toPort, err := config.ParsePortRef(to)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return flow.PortID{}, flow.PortID{}, false
	}
	return flow.NewPortID(fromBlock, fromPort), flow.NewPortID(toBlock, toPort), true
}

// statusFor maps flow errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, flow.ErrUnknownPort):
		return http.StatusNotFound
	case errors.Is(err, flow.ErrInvalidCapacity):
		return http.StatusBadRequest
	case errors.Is(err, flow.ErrTypeMismatch), errors.Is(err, flow.ErrReceiverLinked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response.
func (s *Service) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
