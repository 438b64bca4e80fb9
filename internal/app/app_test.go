package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neogan74/intent/internal/config"
	"github.com/neogan74/intent/internal/crime"
	"github.com/neogan74/intent/internal/logger"
)

func testConfig(t *testing.T, storageType string) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 18888},
		Log:    config.LogConfig{Level: "error", Format: "text"},
		Storage: config.StorageConfig{
			Type:       storageType,
			DataDir:    t.TempDir(),
			BackupDir:  t.TempDir(),
			SyncWrites: false,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Tracing: config.TracingConfig{ServiceName: "intent-test"},
	}
}

func build(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := NewBuilder(cfg, "test").WithLogger(logger.NewNop()).Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func request(t *testing.T, a *App, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.Handler().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestBuild_EndToEnd(t *testing.T) {
	for _, storageType := range []string{"memory", "badger", "sqlite"} {
		t.Run(storageType, func(t *testing.T) {
			a := build(t, testConfig(t, storageType))

			resp := request(t, a, "POST", "/crimes", map[string]any{
				"title": "Stolen bicycle",
				"date":  time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
			})
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			var created crime.Crime
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

			resp = request(t, a, "GET", "/crimes/"+created.ID, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

			resp = request(t, a, "PUT", "/theme", map[string]string{"theme": "forest"})
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			resp = request(t, a, "GET", "/health", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestBuild_MetricsEndpoint(t *testing.T) {
	a := build(t, testConfig(t, "memory"))

	request(t, a, "GET", "/crimes", nil)

	resp := request(t, a, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "intent_http_requests_total")
	assert.Contains(t, string(body), "intent_build_info")
}

func TestBuild_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.Metrics.Enabled = false
	a := build(t, cfg)

	resp := request(t, a, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBuild_UnknownRouteUsesErrorResponse(t *testing.T) {
	a := build(t, testConfig(t, "memory"))

	resp := request(t, a, "GET", "/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Not Found", body["error"])
	assert.NotEmpty(t, body["request_id"])
}

func TestBuild_AuditTrail(t *testing.T) {
	cfg := testConfig(t, "memory")
	trail := filepath.Join(t.TempDir(), "audit.log")
	cfg.Audit = config.AuditConfig{
		Enabled:       true,
		Sink:          "file",
		FilePath:      trail,
		BufferSize:    16,
		FlushInterval: 10 * time.Millisecond,
		DropPolicy:    "block",
	}
	a, err := NewBuilder(cfg, "test").WithLogger(logger.NewNop()).Build(context.Background())
	require.NoError(t, err)

	resp := request(t, a, "POST", "/crimes", map[string]any{
		"title": "Forged cheque",
		"date":  "2024-01-15",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	request(t, a, "GET", "/crimes", nil)
	resp = request(t, a, "PUT", "/theme", map[string]string{"theme": "sepia"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	a.Close()

	data, err := os.ReadFile(trail)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "reads are not audited")
	assert.Contains(t, lines[0], `"action":"crime.save"`)
	assert.Contains(t, lines[0], `"outcome":"success"`)
	assert.Contains(t, lines[1], `"action":"theme.select"`)
	assert.Contains(t, lines[1], `"outcome":"rejected"`)
}

func TestBuild_BadAuditSink(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.Audit = config.AuditConfig{Enabled: true, Sink: "kafka"}

	_, err := NewBuilder(cfg, "test").WithLogger(logger.NewNop()).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit")
}

func TestBuild_BadStorageType(t *testing.T) {
	cfg := testConfig(t, "floppy")

	_, err := NewBuilder(cfg, "test").WithLogger(logger.NewNop()).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported persistence type")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.Server.Port = 0
	a, err := NewBuilder(cfg, "test").WithLogger(logger.NewNop()).Build(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
