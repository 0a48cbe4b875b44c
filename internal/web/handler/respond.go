package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/identilink/identilink/internal/engine"
)

// StatusFor maps an engine error kind to an HTTP status code.
func StatusFor(err error) int {
	switch engine.Kind(err) {
	case engine.KindNotFound:
		return fiber.StatusNotFound
	case engine.KindInvalidState:
		return fiber.StatusConflict
	case engine.KindValidation:
		return fiber.StatusBadRequest
	case engine.KindConfiguration:
		return fiber.StatusUnprocessableEntity
	case engine.KindUnknown:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// Error writes an engine error as a JSON body with the mapped status.
func Error(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

// Page reads and clamps the 1-based pagination query parameters.
func Page(c *fiber.Ctx) (page, pageSize int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize = c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return page, pageSize
}
