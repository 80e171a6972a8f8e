// If you are AI: This file provides HTTP API service integration.
// The API exposes port and link state and lets operators connect or disconnect ports.

package api

import (
	"net/http"
	"time"

	"dataflow/internal/core/flow"
	"dataflow/internal/svc/blocks"
)

// Version is reported by /api/server.
const Version = "0.1.0"

// Service provides HTTP API functionality.
type Service struct {
	registry  *flow.Registry
	blockMgr  BlockManager
	startTime int64
}

// BlockManager defines the interface for block management.
// This allows the API to work with the block manager without tight coupling.
type BlockManager interface {
	Blocks() []blocks.Info
}

// NewService creates a new API service. blockMgr may be nil.
func NewService(registry *flow.Registry, blockMgr BlockManager) *Service {
	return &Service{
		registry:  registry,
		blockMgr:  blockMgr,
		startTime: getCurrentTime(),
	}
}

// RegisterRoutes registers API routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/server", s.handleServer)
	mux.HandleFunc("/api/ports", s.handlePorts)
	mux.HandleFunc("/api/links", s.handleLinks)
	mux.HandleFunc("/api/blocks", s.handleBlocks)
}

// getCurrentTime returns current Unix timestamp.
// Extracted for testability.
func getCurrentTime() int64 {
	return time.Now().Unix()
}
