package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"telecost/internal/config"
)

func newTestServer(t *testing.T, logs *bytes.Buffer) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.DevMode = true
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")

	srv, err := NewServer(cfg, zerolog.New(logs))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func TestServer_StatusWithRequestID(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	srv := newTestServer(t, &logs)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("X-Request-ID=%q", got)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
	if !strings.Contains(logs.String(), `"req_id":"req-42"`) || !strings.Contains(logs.String(), `"path":"/api/status"`) {
		t.Fatalf("unexpected request log: %s", logs.String())
	}
}

func TestServer_GeneratesRequestIDAndPreflight(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	srv := newTestServer(t, &logs)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/billing-imports", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status=%d", w.Code)
	}
	if len(w.Header().Get("X-Request-ID")) != 36 {
		t.Fatalf("expected generated uuid, got %q", w.Header().Get("X-Request-ID"))
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown route status=%d", w.Code)
	}
}
