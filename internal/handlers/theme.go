package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neogan74/intent/internal/middleware"
	"github.com/neogan74/intent/internal/theme"
)

// ThemeHandler serves the theme preference.
type ThemeHandler struct {
	svc *theme.Service
}

// NewThemeHandler creates a theme handler.
func NewThemeHandler(svc *theme.Service) *ThemeHandler {
	return &ThemeHandler{svc: svc}
}

// Current returns the selected theme.
func (h *ThemeHandler) Current(c *fiber.Ctx) error {
	return c.JSON(h.svc.Current(c.UserContext()))
}

// List returns the theme catalog and the selected key.
func (h *ThemeHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"themes":  theme.Catalog,
		"current": h.svc.Current(c.UserContext()).Key,
	})
}

// Select stores the theme named in the body.
func (h *ThemeHandler) Select(c *fiber.Ctx) error {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := c.BodyParser(&body); err != nil {
		return middleware.BadRequest(c, "invalid request body")
	}
	if body.Theme == "" {
		return middleware.BadRequest(c, "theme is required")
	}

	selected, err := h.svc.Select(c.UserContext(), body.Theme)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(selected)
}
