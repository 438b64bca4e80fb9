package middleware

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/neogan74/intent/internal/audit"
	"github.com/neogan74/intent/internal/logger"
)

// Audit records one change-trail event per request for the route it is
// attached to. The target id comes from the :id parameter, or from the id,
// key or name field of the JSON response.
func Audit(rec *audit.Recorder, action, kind string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rec.Enabled() {
			return c.Next()
		}

		digest := audit.Digest(c.Body())
		err := c.Next()
		status := responseStatus(c, err)

		event := audit.Event{
			Action:        action,
			Outcome:       audit.OutcomeFor(status),
			Target:        audit.Target{Kind: kind, ID: targetID(c)},
			RequestID:     GetRequestID(c),
			TraceID:       string(c.Response().Header.Peek(TraceIDHeader)),
			ClientIP:      c.IP(),
			Method:        c.Method(),
			Route:         routePattern(c),
			Status:        status,
			PayloadDigest: digest,
		}
		if err != nil {
			event.Details = map[string]string{"error": err.Error()}
		}

		if _, recErr := rec.Record(c.UserContext(), event); recErr != nil {
			GetLogger(c).Warn("Failed to record audit event",
				logger.String("action", action),
				logger.Error(recErr))
		}
		return err
	}
}

func targetID(c *fiber.Ctx) string {
	if id := c.Params("id"); id != "" {
		return id
	}

	var body struct {
		ID   string `json:"id"`
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	if json.Unmarshal(c.Response().Body(), &body) != nil {
		return ""
	}
	switch {
	case body.ID != "":
		return body.ID
	case body.Key != "":
		return body.Key
	default:
		return body.Name
	}
}
