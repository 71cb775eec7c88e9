package server

import (
	"time"

	"mundotango/internal/middleware"
	"mundotango/internal/models"
	"mundotango/internal/resource"
	"mundotango/internal/service"

	"github.com/gofiber/fiber/v2"
)

// sendSession answers with the signed-in user, echoing the token as
// api_token, and sets the access_token cookie for the web client.
func (s *Server) sendSession(c *fiber.Ctx, session *service.Session, message string) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.Claims.ExpiresAt.Time,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	env := resource.Env{MediaBaseURL: s.config.MediaBaseURL, APIToken: session.Token}
	return sendShaped(c, resource.Users, env, session.User, message)
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and sign in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Signup request"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	session, err := s.authService.Register(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return s.sendSession(c, session, "User registered successfully")
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate user and return JWT token as api_token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}
	session, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return s.sendSession(c, session, "Logged in successfully")
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the current token.
// @Tags auth
// @Produce json
// @Success 200 {object} models.Response
// @Security BearerAuth
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals(middleware.LocalClaims).(*middleware.Claims)
	if err := s.authService.Logout(c.UserContext(), claims); err != nil {
		return models.RespondWithAppError(c, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
	})
	return models.SendResponse(c, nil, "Logged out successfully")
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.Response
// @Security BearerAuth
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), userID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	token, _ := c.Locals(middleware.LocalAPIToken).(string)
	env := resource.Env{MediaBaseURL: s.config.MediaBaseURL, APIToken: token}
	return sendShaped(c, resource.Users, env, user, "User retrieved successfully")
}
