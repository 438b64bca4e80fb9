package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/neogan74/intent/internal/logger"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

// Locals keys
const (
	RequestIDKey = "request_id"
	LoggerKey    = "logger"
)

// RequestLogging attaches a request id and a request-scoped logger to every
// request and logs its completion. An incoming X-Request-ID is reused.
func RequestLogging(log logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDHeader, requestID)

		reqLog := log.WithRequest(requestID)
		c.Locals(LoggerKey, reqLog)

		start := time.Now()
		reqLog.Debug("Request started",
			logger.String("method", c.Method()),
			logger.String("path", c.Path()),
			logger.String("ip", c.IP()),
		)

		err := c.Next()
		if err != nil {
			// let the app error handler pick the status before logging it
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []logger.Field{
			logger.String("method", c.Method()),
			logger.String("path", c.Path()),
			logger.Int("status", status),
			logger.Duration("duration", time.Since(start)),
		}
		if err != nil {
			fields = append(fields, logger.Error(err))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			reqLog.Error("Request completed", fields...)
		case status >= fiber.StatusBadRequest:
			reqLog.Warn("Request completed", fields...)
		default:
			reqLog.Info("Request completed", fields...)
		}

		return nil
	}
}

// GetRequestID returns the request id stored by RequestLogging.
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

// GetLogger returns the request-scoped logger, or the process default.
func GetLogger(c *fiber.Ctx) logger.Logger {
	if log, ok := c.Locals(LoggerKey).(logger.Logger); ok {
		return log
	}
	return logger.GetDefault()
}
