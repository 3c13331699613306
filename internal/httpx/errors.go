// Package httpx defines the portal's stable JSON error shape. Every failure
// path resolves to a user-visible message; nothing here is fatal.
package httpx

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/harborbank/portal/internal/coreapi"
)

// FieldError reports a validation failure tied to a single form field. These
// are caught before any network call reaches the core.
func FieldError(c *fiber.Ctx, field, message string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": message, "field": field})
}

// CoreError maps a core client failure onto the portal's error shape.
// Business-rule rejections surface their friendly message; unavailable
// errors are marked retryable so the client can show a retry banner.
func CoreError(c *fiber.Ctx, err error) error {
	var be *coreapi.BusinessError
	switch {
	case errors.As(err, &be):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": be.Friendly})
	case errors.Is(err, coreapi.ErrUnauthorized):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": coreapi.Friendly(err), "redirect": "/sign-in"})
	case errors.Is(err, coreapi.ErrForbidden):
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": coreapi.Friendly(err)})
	case errors.Is(err, coreapi.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": coreapi.Friendly(err)})
	default:
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": coreapi.Friendly(err), "retryable": true})
	}
}
