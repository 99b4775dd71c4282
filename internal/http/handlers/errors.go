package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"minimarket/internal/domain"
	applog "minimarket/internal/log"
	"minimarket/internal/services"
)

// statusFor maps domain errors to HTTP status codes and client-safe messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidContact),
		errors.Is(err, domain.ErrInvalidProduct),
		errors.Is(err, domain.ErrEmptyCart):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrAuth):
		return fiber.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, domain.ErrStockExceeded),
		errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable, "service temporarily unavailable"
	}
	return fiber.StatusInternalServerError, "something went wrong"
}

// fail logs err under action and writes the mapped JSON error.
func fail(c *fiber.Ctx, action string, err error) error {
	code, msg := statusFor(err)
	c.Status(code)
	switch {
	case code >= 500:
		applog.Error(c, action, err, nil)
	case code == fiber.StatusUnauthorized || code == fiber.StatusForbidden:
		applog.Security(c, action, map[string]any{"error": err.Error()})
	default:
		applog.Info(c, action, map[string]any{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"error": msg})
}

func badRequest(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + field})
}

// ErrorHandler logs unhandled errors and answers with a friendly message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= 500 {
		applog.Error(c, "server.error", err, nil)
	}
	msg := "Something went wrong. Please try again."
	if code == fiber.StatusNotFound {
		msg = "Page not found"
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
