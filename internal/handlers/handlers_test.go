package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/neogan74/intent/internal/crime"
	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/middleware"
	"github.com/neogan74/intent/internal/persistence"
	"github.com/neogan74/intent/internal/storage"
	"github.com/neogan74/intent/internal/theme"
)

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	app    *fiber.App
	engine persistence.Engine
	store  *storage.Service
	crimes *crime.Service
	themes *theme.Service
}

func newTestEnv(t *testing.T, engine persistence.Engine) *testEnv {
	t.Helper()
	if engine == nil {
		engine = persistence.NewMemoryEngine()
	}
	log := logger.NewNop()
	store := storage.New(engine, log)
	env := &testEnv{
		app:    fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler}),
		engine: engine,
		store:  store,
		crimes: crime.NewService(store, log, crime.WithClock(func() time.Time { return testNow })),
		themes: theme.NewService(store, log),
	}
	env.app.Use(middleware.RequestLogging(log))

	crimeHandler := NewCrimeHandler(env.crimes)
	env.app.Get("/crimes", crimeHandler.List)
	env.app.Get("/crimes/stats", crimeHandler.Stats)
	env.app.Get("/crimes/:id", crimeHandler.Get)
	env.app.Post("/crimes", crimeHandler.Create)
	env.app.Put("/crimes/:id", crimeHandler.Update)
	env.app.Delete("/crimes/:id", crimeHandler.Delete)
	env.app.Delete("/crimes", crimeHandler.Clear)

	themeHandler := NewThemeHandler(env.themes)
	env.app.Get("/theme", themeHandler.Current)
	env.app.Put("/theme", themeHandler.Select)
	env.app.Get("/themes", themeHandler.List)

	storageHandler := NewStorageHandler(store)
	env.app.Get("/storage/keys", storageHandler.Keys)
	env.app.Get("/storage/export", storageHandler.Export)
	env.app.Post("/storage/import", storageHandler.Import)
	env.app.Delete("/storage/keys", storageHandler.Remove)

	healthHandler := NewHealthHandler(env.crimes, store, "memory", "1.0.0-test")
	env.app.Get("/health", healthHandler.Check)
	env.app.Get("/health/live", healthHandler.Liveness)
	env.app.Get("/health/ready", healthHandler.Readiness)

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// failingEngine fails every operation.
type failingEngine struct {
	*persistence.MemoryEngine
}

var errDisk = errors.New("disk I/O error at sector 7")

func (failingEngine) Get(string) ([]byte, error) { return nil, errDisk }

func (failingEngine) Set(string, []byte) error { return errDisk }

func (failingEngine) Delete(string) error { return errDisk }

func (failingEngine) List(string) ([]string, error) { return nil, errDisk }
