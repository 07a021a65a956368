package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func stopServer(t *testing.T, server *Server) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Stop(ctx)
}

func TestServer_Metrics(t *testing.T) {
	server := NewServer("127.0.0.1:0", func() bool { return true })

	if _, err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer stopServer(t, server)

	addr := server.Addr()
	if addr == "" {
		t.Fatal("server address is empty")
	}

	// Touch the custom metrics so they appear in output.
	metrics := server.Metrics()
	metrics.RequestsTotal.WithLabelValues("login", "ok").Inc()
	metrics.RequestsTotal.WithLabelValues("login", "ok").Inc()
	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("failed to GET /metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	bodyStr := string(body)

	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("expected Prometheus exposition format")
	}
	if !strings.Contains(bodyStr, "go_") {
		t.Error("expected go_* metrics")
	}
	if !strings.Contains(bodyStr, "process_") {
		t.Error("expected process_* metrics")
	}
	if !strings.Contains(bodyStr, `accountd_requests_total{operation="login",status="ok"} 2`) {
		t.Error("expected login request counter to be 2")
	}
	if !strings.Contains(bodyStr, `accountd_password_resets_total{result="requested"} 1`) {
		t.Error("expected password reset counter to be 1")
	}
}

func TestServer_LivenessReturns200(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	if _, err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer stopServer(t, server)

	resp, err := http.Get("http://" + server.Addr() + "/healthz/liveness")
	if err != nil {
		t.Fatalf("failed to GET /healthz/liveness: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestServer_Readiness(t *testing.T) {
	cases := []struct {
		name       string
		checker    ReadinessChecker
		wantStatus int
	}{
		{"ready", func() bool { return true }, http.StatusOK},
		{"not ready", func() bool { return false }, http.StatusServiceUnavailable},
		{"nil checker defaults to ready", nil, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := NewServer("127.0.0.1:0", tc.checker)
			if _, err := server.Start(); err != nil {
				t.Fatalf("failed to start server: %v", err)
			}
			defer stopServer(t, server)

			resp, err := http.Get("http://" + server.Addr() + "/healthz/readiness")
			if err != nil {
				t.Fatalf("failed to GET /healthz/readiness: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestServer_DoubleStartFails(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	if _, err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer stopServer(t, server)

	if _, err := server.Start(); err == nil {
		t.Error("expected error on double start, got nil")
	}
}

func TestServer_StopIdempotent(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		t.Errorf("stop without start should not error: %v", err)
	}
}

func TestServer_ErrorChannelReportsServeErrors(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	errCh, err := server.Start()
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	// Force close the listener to trigger an error in Serve().
	if server.listener != nil {
		_ = server.listener.Close()
	}

	select {
	case serveErr := <-errCh:
		if serveErr == nil {
			t.Error("expected an error from the error channel after closing listener")
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for error on error channel")
	}

	stopServer(t, server)
}

func TestServer_ErrorChannelClosesOnNormalShutdown(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	errCh, err := server.Start()
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		t.Fatalf("failed to stop server: %v", err)
	}

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			t.Errorf("unexpected error on normal shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for error channel to close")
	}
}
