package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/neogan74/intent/internal/metrics"
)

// Metrics records request counts, latencies and in-flight requests. Paths are
// labelled by route pattern so record ids do not become label values.
// Requests to skipPath are not measured.
func Metrics(skipPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == skipPath {
			return c.Next()
		}

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		err := c.Next()

		path := routePattern(c)
		code := strconv.Itoa(responseStatus(c, err))

		metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), path, code).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Method(), path, code).
			Observe(time.Since(start).Seconds())

		return err
	}
}

// responseStatus is the status the client will see once err, if any, reaches
// the app error handler.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// routePattern returns the matched route, or "unmatched". Outside a matched
// route Fiber reports the middleware's "/" pattern.
func routePattern(c *fiber.Ctx) string {
	path := c.Route().Path
	if path == "" || (path == "/" && c.Path() != "/") {
		return "unmatched"
	}
	return path
}
