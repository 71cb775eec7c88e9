package server

import (
	"mundotango/internal/models"
	"mundotango/internal/observability"
	"mundotango/internal/resource"

	"github.com/gofiber/fiber/v2"
)

// Mentions handles GET /api/user/mentions
// @Summary Mention suggestions
// @Description Up to 10 users whose username or name starts with q.
// @Tags users
// @Produce json
// @Param q query string true "Prefix, optionally starting with @"
// @Success 200 {object} models.Response
// @Security BearerAuth
// @Router /user/mentions [get]
func (s *Server) Mentions(c *fiber.Ctx) error {
	users, err := s.mentions.Suggest(c.UserContext(), c.Query("q"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return sendShaped(c, resource.Mentions, s.env(), users, "Mention suggestions")
}

// UnreadCount handles GET /api/notification/unread-count
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} models.Response
// @Security BearerAuth
// @Router /notification/unread-count [get]
func (s *Server) UnreadCount(c *fiber.Ctx) error {
	n, err := s.notificationService.UnreadCount(c.UserContext(), userID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.SendResponse(c, fiber.Map{"count": n}, "Unread count")
}

// MarkRead handles POST /api/notification/read/:id
// @Summary Mark one notification read
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notification/read/{id} [post]
func (s *Server) MarkRead(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	if err := s.notificationService.MarkRead(c.UserContext(), userID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.SendResponse(c, fiber.Map{"id": id}, "Notification marked as read")
}

// MarkAllRead handles POST /api/notification/read-all
// @Summary Mark every notification read
// @Tags notifications
// @Produce json
// @Success 200 {object} models.Response
// @Security BearerAuth
// @Router /notification/read-all [post]
func (s *Server) MarkAllRead(c *fiber.Ctx) error {
	n, err := s.notificationService.MarkAllRead(c.UserContext(), userID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.SendResponse(c, fiber.Map{"updated": n}, "Notifications marked as read")
}

// CacheVersion handles GET /api/cache-version
// @Summary Client cache version
// @Tags cache
// @Produce json
// @Success 200 {object} models.Response
// @Router /cache-version [get]
func (s *Server) CacheVersion(c *fiber.Ctx) error {
	v, err := s.version.Current(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return models.SendResponse(c, fiber.Map{"version": v}, "Cache version")
}

// BumpCacheVersion handles POST /api/cache-version/bump
// @Summary Invalidate client caches
// @Tags cache
// @Produce json
// @Success 200 {object} models.Response
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /cache-version/bump [post]
func (s *Server) BumpCacheVersion(c *fiber.Ctx) error {
	v, err := s.version.Bump(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	observability.Logger.InfoContext(c.UserContext(), "client cache version bumped", "version", v)
	return models.SendResponse(c, fiber.Map{"version": v}, "Cache version bumped")
}
