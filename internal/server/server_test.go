// If you are AI: This file contains unit tests for server routing and shutdown.

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dataflow/internal/config"
	"dataflow/internal/svc/health"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{HTTPPort: 8080, TapCapacity: 8, ShutdownTimeout: 1000},
		Log:    config.LogConfig{Level: "info"},
	}
}

func TestServerRoutes(t *testing.T) {
	srv := New(testConfig(), health.New(nil))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/nothing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestShutdownOnContextCancel(t *testing.T) {
	srv := New(testConfig(), health.New(nil))
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()

	handler := NewShutdownHandler(srv, context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := handler.Wait(ctx); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}

	if handler.Context().Err() == nil {
		t.Error("Shutdown context should be cancelled")
	}
	select {
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Expected ErrServerClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}
}
