// If you are AI: This file contains unit tests for API handlers.
// Tests verify JSON responses and error handling.

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dataflow/internal/core/flow"
	"dataflow/internal/svc/blocks"
)

// fakeBlocks is a static BlockManager.
type fakeBlocks []blocks.Info

func (f fakeBlocks) Blocks() []blocks.Info { return f }

// newTestService registers cam/out, det/in (image) and vec/in (tensor).
func newTestService(t *testing.T) (*Service, *flow.Registry) {
	t.Helper()
	registry := flow.NewRegistry()
	if err := registry.AddSender(flow.NewSender("cam", "out", "image")); err != nil {
		t.Fatalf("AddSender failed: %v", err)
	}
	for _, rc := range []*flow.Receiver{
		flow.NewReceiver("det", "in", "image"),
		flow.NewReceiver("vec", "in", "tensor"),
	} {
		if err := registry.AddReceiver(rc); err != nil {
			t.Fatalf("AddReceiver failed: %v", err)
		}
	}
	return NewService(registry, fakeBlocks{{ID: "cam", Kind: "source", Running: true}}), registry
}

// serve runs one request through the service routes.
func serve(s *Service, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandleServer(t *testing.T) {
	service, _ := newTestService(t)
	w := serve(service, "GET", "/api/server", "")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response ServerResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Version == "" {
		t.Error("Version should not be empty")
	}
	if response.Uptime < 0 {
		t.Error("Uptime should be non-negative")
	}
	if response.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
	if len(response.EnabledServices) == 0 {
		t.Error("EnabledServices should not be empty")
	}

	if w := serve(service, "POST", "/api/server", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestHandlePorts(t *testing.T) {
	service, _ := newTestService(t)
	w := serve(service, "GET", "/api/ports", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response PortsResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Ports) != 3 {
		t.Fatalf("Expected 3 ports, got %d", len(response.Ports))
	}
	if response.Ports[0].Kind != "sender" || response.Ports[0].ID.String() != "cam/out" {
		t.Errorf("Expected sender cam/out first, got %+v", response.Ports[0])
	}
}

func TestHandleBlocks(t *testing.T) {
	service, _ := newTestService(t)
	w := serve(service, "GET", "/api/blocks", "")

	var response BlocksResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Blocks) != 1 || !response.Blocks[0].Running {
		t.Errorf("Unexpected blocks %+v", response.Blocks)
	}
}

func TestLinkLifecycle(t *testing.T) {
	service, registry := newTestService(t)

	w := serve(service, "POST", "/api/links", `{"from":"cam/out","to":"det/in","capacity":2}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(service, "GET", "/api/links", "")
	var links LinksResponse
	if err := json.NewDecoder(w.Body).Decode(&links); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(links.Links) != 1 || links.Links[0].Capacity != 2 || links.Links[0].DataType != "image" {
		t.Fatalf("Unexpected links %+v", links.Links)
	}

	// Queue one frame so the disconnect has something to drain
	format := flow.NewFormat(flow.PixelFormatU8C3, 1, 1, 3)
	src := registry.Sender(flow.NewPortID("cam", "out"))
	src.Send(1, format, flow.NewBuffer(format.ByteLen(), nil))

	w = serve(service, "DELETE", "/api/links?from=cam/out&to=det/in", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp DisconnectResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Drained != 1 {
		t.Errorf("Expected 1 drained frame, got %d", resp.Drained)
	}

	if w := serve(service, "DELETE", "/api/links?from=cam/out&to=det/in", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for a removed link, got %d", w.Code)
	}
}

func TestConnectErrors(t *testing.T) {
	service, _ := newTestService(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"bad ref", `{"from":"cam","to":"det/in","capacity":1}`, http.StatusBadRequest},
		{"unknown port", `{"from":"cam/out","to":"nope/in","capacity":1}`, http.StatusNotFound},
		{"zero capacity", `{"from":"cam/out","to":"det/in","capacity":0}`, http.StatusBadRequest},
		{"type mismatch", `{"from":"cam/out","to":"vec/in","capacity":1}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(service, "POST", "/api/links", tt.body)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil || resp.Error == "" {
				t.Errorf("Expected error body, got %v", err)
			}
		})
	}

	if w := serve(service, "PUT", "/api/links", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestConnectReceiverLinked(t *testing.T) {
	service, _ := newTestService(t)
	body := `{"from":"cam/out","to":"det/in","capacity":1}`

	if w := serve(service, "POST", "/api/links", body); w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	if w := serve(service, "POST", "/api/links", body); w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for relink, got %d", w.Code)
	}
}
