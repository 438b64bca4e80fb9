package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/neogan74/intent/internal/crime"
	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/middleware"
	"github.com/neogan74/intent/internal/storage"
	"github.com/neogan74/intent/internal/theme"
)

// respondError maps service errors onto HTTP replies. Storage causes are
// logged and never exposed.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validationErr *crime.ValidationError
		notFoundErr   *crime.NotFoundError
		inputErr      *crime.InputError
		themeErr      *theme.UnknownThemeError
		storageErr    *storage.Error
	)

	switch {
	case errors.As(err, &validationErr):
		fields := make(map[string]string, len(validationErr.Fields))
		for field, msg := range validationErr.Fields {
			fields[string(field)] = msg
		}
		return middleware.UnprocessableEntity(c, validationErr.Message, fields)
	case errors.As(err, &inputErr):
		return middleware.BadRequest(c, inputErr.Error())
	case errors.As(err, &themeErr):
		return middleware.BadRequest(c, themeErr.Error())
	case errors.As(err, &notFoundErr):
		return middleware.NotFound(c, notFoundErr.Error())
	}

	middleware.GetLogger(c).Error("Request failed", logger.Error(err))

	switch {
	case crime.IsLoadError(err):
		return middleware.InternalServerError(c, "unable to load crimes")
	case errors.As(err, &storageErr):
		return middleware.InternalServerError(c, storageErr.Error())
	default:
		return middleware.InternalServerError(c, "internal server error")
	}
}
