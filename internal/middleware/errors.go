package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/neogan74/intent/internal/logger"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Path      string            `json:"path,omitempty"`
}

// BadRequest replies 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return errorResponse(c, fiber.StatusBadRequest, message, nil)
}

// NotFound replies 404.
func NotFound(c *fiber.Ctx, message string) error {
	return errorResponse(c, fiber.StatusNotFound, message, nil)
}

// UnprocessableEntity replies 422 with per-field messages.
func UnprocessableEntity(c *fiber.Ctx, message string, fields map[string]string) error {
	return errorResponse(c, fiber.StatusUnprocessableEntity, message, fields)
}

// InternalServerError replies 500.
func InternalServerError(c *fiber.Ctx, message string) error {
	return errorResponse(c, fiber.StatusInternalServerError, message, nil)
}

// ErrorHandler renders errors that escape handlers, including Fiber's own
// (unknown route, bad method), as ErrorResponse.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		GetLogger(c).Error("Unhandled error", logger.Error(err))
	}

	return errorResponse(c, status, message, nil)
}

func errorResponse(c *fiber.Ctx, status int, message string, fields map[string]string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error:     utils.StatusMessage(status),
		Message:   message,
		Fields:    fields,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
		Path:      c.Path(),
	})
}
