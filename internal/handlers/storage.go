package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/middleware"
	"github.com/neogan74/intent/internal/storage"
)

// StorageHandler exposes administration of the raw key-value layout.
type StorageHandler struct {
	store *storage.Service
}

// NewStorageHandler creates a storage handler.
func NewStorageHandler(store *storage.Service) *StorageHandler {
	return &StorageHandler{store: store}
}

// Keys lists every stored key.
func (h *StorageHandler) Keys(c *fiber.Ctx) error {
	keys, err := h.store.GetAllKeys(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"keys": keys, "count": len(keys)})
}

// Export returns the raw JSON value of every stored key.
func (h *StorageHandler) Export(c *fiber.Ctx) error {
	ctx := c.UserContext()
	keys, err := h.store.GetAllKeys(ctx)
	if err != nil {
		return respondError(c, err)
	}
	values, err := h.store.GetMultiple(ctx, keys)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(values)
}

// Import writes every key of the JSON object body as-is. Values are stored
// without record validation.
func (h *StorageHandler) Import(c *fiber.Ctx) error {
	var body map[string]json.RawMessage
	if err := c.BodyParser(&body); err != nil {
		return middleware.BadRequest(c, "invalid request body")
	}
	if len(body) == 0 {
		return middleware.BadRequest(c, "no keys to import")
	}

	values := make(map[string]any, len(body))
	for key, raw := range body {
		values[key] = raw
	}
	if err := h.store.SetMultiple(c.UserContext(), values); err != nil {
		return respondError(c, err)
	}

	middleware.GetLogger(c).Info("Storage imported", logger.Int("keys", len(values)))
	return c.JSON(fiber.Map{"message": "import completed", "count": len(values)})
}

// Remove deletes the keys listed in a {"keys": [...]} body.
func (h *StorageHandler) Remove(c *fiber.Ctx) error {
	var body struct {
		Keys []string `json:"keys"`
	}
	if err := c.BodyParser(&body); err != nil {
		return middleware.BadRequest(c, "invalid request body")
	}
	if len(body.Keys) == 0 {
		return middleware.BadRequest(c, "no keys to remove")
	}

	if err := h.store.RemoveMultiple(c.UserContext(), body.Keys); err != nil {
		return respondError(c, err)
	}

	middleware.GetLogger(c).Info("Storage keys removed", logger.Strings("keys", body.Keys))
	return c.JSON(fiber.Map{"message": "keys removed", "count": len(body.Keys)})
}
