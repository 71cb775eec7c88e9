package server

import (
	"errors"

	"mundotango/internal/middleware"
	"mundotango/internal/models"
	"mundotango/internal/observability"
	"mundotango/internal/repository"
	"mundotango/internal/resource"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts the :id route parameter as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// userID is the caller set by APIAuthentication.
func userID(c *fiber.Ctx) uint {
	id, _ := c.Locals(middleware.LocalUserID).(uint)
	return id
}

// actor resolves the caller and whether they are an admin.
func (s *Server) actor(c *fiber.Ctx) (repository.Actor, error) {
	id := userID(c)
	if id == 0 {
		return repository.Actor{}, models.NewUnauthorizedError("Authorization required")
	}
	admin, err := s.users.IsAdmin(c.UserContext(), id)
	if err != nil {
		return repository.Actor{}, err
	}
	return repository.Actor{ID: id, IsAdmin: admin}, nil
}

// env is the shaping environment for ordinary resource responses.
func (s *Server) env() resource.Env {
	return resource.Env{MediaBaseURL: s.config.MediaBaseURL}
}

// sendShaped writes data through res inside the success envelope. A shaping
// failure (such as a NULL list column) is a 500.
func sendShaped[T any](c *fiber.Ctx, res *resource.Resource[T], env resource.Env, data any, message string) error {
	out, err := res.InitResponse(env, data)
	if err != nil {
		observability.Logger.ErrorContext(c.UserContext(), "resource shaping failed",
			"resource", res.Name, "error", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return models.SendResponse(c, out, message)
}

// bodyAttrs decodes a JSON object body. An empty body is an empty object.
func bodyAttrs(c *fiber.Ctx) (repository.Attrs, error) {
	attrs := repository.Attrs{}
	if len(c.Body()) == 0 {
		return attrs, nil
	}
	if err := c.BodyParser(&attrs); err != nil {
		return nil, models.NewValidationError("Invalid request body")
	}
	return attrs, nil
}
