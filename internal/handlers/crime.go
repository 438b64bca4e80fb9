package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/neogan74/intent/internal/crime"
	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/middleware"
)

// CrimeHandler serves the crime collection.
type CrimeHandler struct {
	svc *crime.Service
}

// NewCrimeHandler creates a crime handler.
func NewCrimeHandler(svc *crime.Service) *CrimeHandler {
	return &CrimeHandler{svc: svc}
}

// ListResponse is the body of GET /crimes.
type ListResponse struct {
	Crimes []crime.Crime `json:"crimes"`
	Count  int           `json:"count"`
}

// List returns every crime newest first, narrowed by the optional solved, q,
// from and to query parameters.
func (h *CrimeHandler) List(c *fiber.Ctx) error {
	criteria, err := parseCriteria(c)
	if err != nil {
		return middleware.BadRequest(c, err.Error())
	}

	var crimes []crime.Crime
	if criteria.IsEmpty() {
		crimes, err = h.svc.ListAll(c.UserContext())
	} else {
		crimes, err = h.svc.Filter(c.UserContext(), criteria)
	}
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(ListResponse{Crimes: crimes, Count: len(crimes)})
}

// Get returns a single crime.
func (h *CrimeHandler) Get(c *fiber.Ctx) error {
	found, err := h.svc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(found)
}

// Create saves a new crime. Any id in the body is ignored.
func (h *CrimeHandler) Create(c *fiber.Ctx) error {
	var in crime.Input
	if err := c.BodyParser(&in); err != nil {
		return middleware.BadRequest(c, "invalid request body")
	}
	in.ID = ""

	saved, err := h.svc.Save(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}

	middleware.GetLogger(c).Debug("Crime created", logger.String("id", saved.ID))
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// Update saves the crime under the path id, creating it when absent.
func (h *CrimeHandler) Update(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return middleware.BadRequest(c, "id is required")
	}

	var in crime.Input
	if err := c.BodyParser(&in); err != nil {
		return middleware.BadRequest(c, "invalid request body")
	}
	in.ID = id

	saved, err := h.svc.Save(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(saved)
}

// Delete removes a crime.
func (h *CrimeHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.svc.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "crime deleted", "id": id})
}

// Clear removes every crime.
func (h *CrimeHandler) Clear(c *fiber.Ctx) error {
	if err := h.svc.ClearAll(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Stats returns collection statistics.
func (h *CrimeHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func parseCriteria(c *fiber.Ctx) (crime.Criteria, error) {
	criteria := crime.Criteria{SearchTerm: c.Query("q")}

	if raw := c.Query("solved"); raw != "" {
		solved, err := strconv.ParseBool(raw)
		if err != nil {
			return criteria, errors.New("solved must be true or false")
		}
		criteria.Solved = &solved
	}

	if raw := c.Query("from"); raw != "" {
		from, err := crime.ParseTime(raw)
		if err != nil {
			return criteria, errors.New("from must be an ISO-8601 date")
		}
		criteria.From = &from
	}

	if raw := c.Query("to"); raw != "" {
		to, err := crime.ParseUpperBound(raw)
		if err != nil {
			return criteria, errors.New("to must be an ISO-8601 date")
		}
		criteria.To = &to
	}

	if criteria.From != nil && criteria.To != nil && criteria.From.After(*criteria.To) {
		return criteria, errors.New("from must not be after to")
	}

	return criteria, nil
}
