// If you are AI: This file provides helper functions for starting and managing server processes in tests.

package itest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

// BuildBinary builds the dataflow daemon into a temp directory.
func BuildBinary(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "dataflow")
	buildCmd := exec.Command("go", "build", "-o", binPath, "../../cmd/dataflow")
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}
	return binPath
}

// FindFreePort returns a TCP port that was free at call time.
func FindFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

// WriteConfig writes a YAML config listening on port, followed by body.
func WriteConfig(t *testing.T, port int, body string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("server:\n  http_port: %d\n  shutdown_timeout_ms: 1000\nlog:\n  level: warn\n%s", port, body)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return configPath
}

// StartServer starts the binary with configPath and waits for /healthz.
// The process is stopped with SIGINT when the test ends.
func StartServer(t *testing.T, binPath, configPath string, port int) *exec.Cmd {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	cmd := exec.CommandContext(ctx, binPath, "--config", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		cancel()
		t.Fatalf("Failed to start server: %v", err)
	}

	t.Cleanup(func() {
		if cmd.ProcessState == nil {
			cmd.Process.Signal(syscall.SIGINT)
			cmd.Wait()
		}
		cancel()
	})

	if err := WaitForHealth(port, 5*time.Second); err != nil {
		cmd.Process.Kill()
		t.Fatalf("Health endpoint not available: %v", err)
	}
	return cmd
}

// WaitForHealth waits for the health endpoint to become available.
// Returns an error if the endpoint is not available within the timeout.
func WaitForHealth(port int, timeout time.Duration) error {
	return waitForStatus(fmt.Sprintf("http://localhost:%d/healthz", port), timeout)
}

// WaitForReady waits for /readyz to report every configured link live.
func WaitForReady(port int, timeout time.Duration) error {
	return waitForStatus(fmt.Sprintf("http://localhost:%d/readyz", port), timeout)
}

// waitForStatus polls url until it answers 200 OK.
func waitForStatus(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("%s not available after %v", url, timeout)
}
