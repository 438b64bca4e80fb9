package handlers

import (
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/neogan74/intent/internal/crime"
	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/middleware"
	"github.com/neogan74/intent/internal/storage"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Uptime    string        `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
	Storage   StorageHealth `json:"storage"`
	System    SystemHealth  `json:"system"`
}

// StorageHealth reports the backing store.
type StorageHealth struct {
	Engine string `json:"engine"`
	Keys   int    `json:"keys"`
	Crimes int    `json:"crimes"`
	Error  string `json:"error,omitempty"`
}

type SystemHealth struct {
	Goroutines  int    `json:"goroutines"`
	MemoryAlloc uint64 `json:"memory_alloc_bytes"`
	NumGC       uint32 `json:"num_gc"`
}

// HealthHandler reports service health.
type HealthHandler struct {
	crimes     *crime.Service
	store      *storage.Service
	engineType string
	version    string
	startTime  time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(crimes *crime.Service, store *storage.Service, engineType, version string) *HealthHandler {
	return &HealthHandler{
		crimes:     crimes,
		store:      store,
		engineType: engineType,
		version:    version,
		startTime:  time.Now(),
	}
}

// Check returns the service status with the crime count. A store that cannot
// be read makes the service unhealthy.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status := HealthStatus{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Storage:   StorageHealth{Engine: h.engineType},
		System: SystemHealth{
			Goroutines:  runtime.NumGoroutine(),
			MemoryAlloc: m.Alloc,
			NumGC:       m.NumGC,
		},
	}

	keys, err := h.store.GetAllKeys(c.UserContext())
	if err == nil {
		status.Storage.Keys = len(keys)
		var crimes []crime.Crime
		crimes, err = h.crimes.ListAll(c.UserContext())
		status.Storage.Crimes = len(crimes)
	}
	if err != nil {
		middleware.GetLogger(c).Warn("Health check failed", logger.Error(err))
		status.Status = "unhealthy"
		status.Storage.Error = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}

	return c.JSON(status)
}

// Liveness reports that the process is up.
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive", "timestamp": time.Now().UTC()})
}

// Readiness reports whether the store answers.
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	if _, err := h.store.GetAllKeys(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ready", "timestamp": time.Now().UTC()})
}
