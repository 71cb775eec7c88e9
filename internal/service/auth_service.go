// Package service holds the business rules behind the REST and WebSocket
// surfaces: authentication, mention suggestions, notifications, chat, and
// the per-resource RestModel declarations.
package service

import (
	"context"
	"strings"

	"mundotango/internal/middleware"
	"mundotango/internal/models"
	"mundotango/internal/repository"
	"mundotango/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer issues and revokes API tokens.
type TokenIssuer interface {
	IssueToken(userID uint, username string) (string, *middleware.Claims, error)
	Revoke(ctx context.Context, claims *middleware.Claims) error
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a signed token and the user it belongs to.
type Session struct {
	Token  string
	Claims *middleware.Claims
	User   *models.User
}

// AuthService registers users and signs them in and out.
type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// HashPassword validates and bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	if err := validation.ValidatePassword(password); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if existing, err := s.users.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewValidationError("Email is already registered")
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = in.Username
	}
	user := &models.User{
		Name:     name,
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
		IsActive: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.session(user)
}

// Login checks credentials. Unknown emails and wrong passwords produce the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.IsActive {
		return nil, models.NewForbiddenError("Account is disabled")
	}
	return s.session(user)
}

func (s *AuthService) Logout(ctx context.Context, claims *middleware.Claims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, claims, err := s.tokens.IssueToken(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{Token: token, Claims: claims, User: user}, nil
}
