package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"placement/services"
)

func JsonResponse(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data)
}

func ErrorMessage(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{"error": message})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Validation failed!",
		"errors": errors,
	})
}

// StatusFor maps a service error category to its HTTP status. Duplicate
// applications and re-decisions are 400 in this API.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConflict):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorResponse writes err using the service error taxonomy. Upstream and
// unknown errors are logged and hidden behind a generic message.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var fields services.FieldErrors
	if errors.As(err, &fields) {
		return ValidationErrorResponse(c, fields)
	}
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		log.WithFields(log.Fields{"method": c.Method(), "path": c.Path()}).WithError(err).Error("request failed")
		return ErrorMessage(c, status, "Something went wrong, please try again later")
	}
	return ErrorMessage(c, status, err.Error())
}

// ErrorHandler is the fiber-level fallback for errors returned by handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ErrorMessage(c, fe.Code, fe.Message)
	}
	return ErrorResponse(c, err)
}
