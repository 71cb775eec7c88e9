package models

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("Post", 1), fiber.StatusNotFound},
		{NewValidationError("bad"), fiber.StatusBadRequest},
		{NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{NewForbiddenError("no"), fiber.StatusForbidden},
		{NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestRespondWithError_Details(t *testing.T) {
	respond := func(t *testing.T, err error) ErrorResponse {
		t.Helper()
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return RespondWithAppError(c, err) })
		resp, reqErr := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, reqErr)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		var out ErrorResponse
		require.NoError(t, json.Unmarshal(body, &out))
		return out
	}
	internal := NewInternalError(errors.New("pq: relation \"users\" does not exist"))

	t.Run("exposed", func(t *testing.T) {
		HideErrorDetails(false)
		out := respond(t, internal)
		assert.Equal(t, "Internal server error", out.Error)
		assert.Equal(t, CodeInternal, out.Code)
		assert.Contains(t, out.Details, "does not exist")
	})

	t.Run("hidden", func(t *testing.T) {
		HideErrorDetails(true)
		t.Cleanup(func() { HideErrorDetails(false) })

		out := respond(t, internal)
		assert.Equal(t, "Internal server error", out.Error)
		assert.Empty(t, out.Details)

		out = respond(t, errors.New("dial tcp 10.0.0.5:5432: refused"))
		assert.Equal(t, "Internal server error", out.Error)

		out = respond(t, NewValidationError("content is required"))
		assert.Equal(t, "content is required", out.Error, "client errors keep their message")
	})
}
