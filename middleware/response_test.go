package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement/services"
	"placement/storage"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrCodeMismatch, fiber.StatusBadRequest},
		{services.ErrAlreadyApplied, fiber.StatusBadRequest},
		{services.FieldErrors{"email": "is required"}, fiber.StatusBadRequest},
		{services.ErrUnauthenticated, fiber.StatusUnauthorized},
		{services.ErrNotJobOwner, fiber.StatusForbidden},
		{services.ErrJobNotFound, fiber.StatusNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrApplicationNotFound), fiber.StatusNotFound},
		{storage.ErrUnavailable, fiber.StatusInternalServerError},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.err))
		})
	}
}

func respond(t *testing.T, err error) (int, string) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error { return err })

	resp, testErr := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, testErr)
	defer resp.Body.Close()
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	return resp.StatusCode, string(body)
}

func TestErrorHandler(t *testing.T) {
	status, body := respond(t, services.ErrJobNotFound)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"Job not found"}`, body)

	status, body = respond(t, services.FieldErrors{"title": "is required"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"Validation failed!","errors":{"title":"is required"}}`, body)

	status, body = respond(t, fmt.Errorf("dial tcp: %w", storage.ErrUnavailable))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotContains(t, body, "dial tcp")

	status, _ = respond(t, fiber.ErrMethodNotAllowed)
	assert.Equal(t, fiber.StatusMethodNotAllowed, status)
}
