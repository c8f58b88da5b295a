package handler

import (
	"errors"
	"fmt"
	"strconv"

	"boutique-store/internal/service"

	"github.com/gofiber/fiber/v2"
)

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return fiber.StatusBadRequest
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindBusinessRule:
		return fiber.StatusConflict
	case service.KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the failure body shared by every endpoint.
func respondError(c *fiber.Ctx, err error) error {
	kind := service.KindOf(err)
	body := fiber.Map{
		"success": false,
		"error":   kind,
		"message": err.Error(),
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body["errors"] = verr.Fields
	}
	if kind == service.KindInternal {
		body["message"] = "Internal server error"
	}
	return c.Status(statusFor(kind)).JSON(body)
}

func badRequest(c *fiber.Ctx, format string, args ...interface{}) error {
	return respondError(c, invalid(format, args...))
}

func invalid(format string, args ...interface{}) error {
	return &service.ValidationError{Fields: []string{fmt.Sprintf(format, args...)}}
}

// parseID reads a positive integer route parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, invalid("%s must be a positive integer", name)
	}
	return uint(id), nil
}

func actor(c *fiber.Ctx) string {
	if name, ok := c.Locals("admin_username").(string); ok {
		return name
	}
	return "system"
}
