// If you are AI: This file implements the WebSocket handler for sender taps.
// Handles GET /ws/tap/{block}/{port} requests and manages tap lifecycle.

package wstap

import (
	"net/http"
	"strconv"
	"strings"

	"dataflow/internal/core/flow"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const routePrefix = "/ws/tap/"

// Handler handles WebSocket tap requests.
type Handler struct {
	registry        *flow.Registry
	defaultCapacity int
	upgrader        websocket.Upgrader
	logger          zerolog.Logger
}

// NewHandler creates a new WebSocket tap handler.
func NewHandler(registry *flow.Registry, defaultCapacity int) *Handler {
	if defaultCapacity < 1 {
		defaultCapacity = 1
	}
	return &Handler{
		registry:        registry,
		defaultCapacity: defaultCapacity,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Taps are read-only; any origin may observe
				return true
			},
		},
		logger: log.With().Str("component", "svc.wstap").Logger(),
	}
}

// ServeHTTP upgrades the connection and streams frames of one sender.
// Endpoint: GET /ws/tap/{block}/{port}?capacity=N
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Parse path: /ws/tap/{block}/{port}
	urlPath := strings.TrimPrefix(r.URL.Path, routePrefix)
	if urlPath == r.URL.Path {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	parts := strings.SplitN(urlPath, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	capacity := h.defaultCapacity
	if raw := r.URL.Query().Get("capacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		capacity = n
	}

	srcID := flow.NewPortID(parts[0], parts[1])
	src := h.registry.Sender(srcID)
	if src == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// Ephemeral receiver with the sender's type, so Connect cannot mismatch
	rc := flow.NewReceiver("tap-"+uuid.NewString(), "in", src.DataType())
	if err := h.registry.AddReceiver(rc); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer h.registry.RemoveReceiver(rc.ID())

	if err := h.registry.Connect(srcID, rc.ID(), capacity); err != nil {
		h.logger.Warn().Err(err).Str("sender", srcID.String()).Msg("tap connect failed")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade failed, response already sent
		return
	}
	defer conn.Close()

	h.logger.Info().Str("sender", srcID.String()).Str("tap", rc.ID().String()).Int("capacity", capacity).Msg("tap attached")
	tap := NewTap(conn, rc)
	sent, err := tap.Run(r.Context())
	h.logger.Info().Err(err).Str("tap", rc.ID().String()).Uint64("frames", sent).Msg("tap detached")
}

// RegisterRoutes registers WebSocket tap routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(routePrefix, h.ServeHTTP)
}
