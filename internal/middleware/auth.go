// Package middleware provides the HTTP middleware shared by every route:
// token extraction and verification, request context, logging, rate limiting
// and tracing.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mundotango/internal/cache"
	"mundotango/internal/models"
	"mundotango/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// TokenIssuer and TokenAudience are stamped into and required from every JWT.
	TokenIssuer   = "mundotango-api"
	TokenAudience = "mundotango-client"

	// AccessTokenCookie is the cookie the web client stores its token in.
	AccessTokenCookie = "access_token"

	// LocalAPIToken and LocalUserID are the fiber locals set by the auth chain.
	LocalAPIToken = "apiToken"
	LocalUserID   = "userID"
	LocalClaims   = "claims"

	defaultTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenInvalid = errors.New("invalid or expired token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims are the JWT claims issued at login.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", c.Subject, err)
	}
	return uint(id), nil
}

// Authenticator issues, verifies and revokes API tokens. Revocations are
// kept in Redis under blacklist:<jti>; with no Redis configured tokens
// cannot be revoked before they expire.
type Authenticator struct {
	secret []byte
	rdb    *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator returns an Authenticator signing with secret.
func NewAuthenticator(secret string, rdb *redis.Client) *Authenticator {
	return &Authenticator{secret: []byte(secret), rdb: rdb, ttl: defaultTokenTTL, now: time.Now}
}

// IssueToken signs an HS256 token for the user.
func (a *Authenticator) IssueToken(userID uint, username string) (string, *Claims, error) {
	if len(a.secret) == 0 {
		return "", nil, errors.New("JWT secret not configured")
	}
	now := a.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// ParseToken verifies signature, issuer, audience, expiry and revocation.
func (a *Authenticator) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.ID != "" && a.rdb != nil {
		n, err := a.rdb.Exists(ctx, cache.BlacklistKey(claims.ID)).Result()
		if err == nil && n > 0 {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Revoke blacklists the token until it would have expired anyway.
func (a *Authenticator) Revoke(ctx context.Context, claims *Claims) error {
	if a.rdb == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(a.now()); remaining > 0 {
			ttl = remaining
		}
	}
	if err := a.rdb.Set(ctx, cache.BlacklistKey(claims.ID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// TokenFromRequest returns the bearer token or the access_token cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(AccessTokenCookie)
}

// CheckAPIToken rejects requests that carry no token at all.
func CheckAPIToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		c.Locals(LocalAPIToken, token)
		return c.Next()
	}
}

// APIAuthentication verifies the token found by CheckAPIToken and stores
// the caller's id in locals and in the user context.
func (a *Authenticator) APIAuthentication() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, _ := c.Locals(LocalAPIToken).(string)
		if token == "" {
			token = TokenFromRequest(c)
		}
		claims, err := a.ParseToken(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(capitalize(err.Error())))
		}
		userID, err := claims.UserID()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalClaims, claims)
		c.SetUserContext(context.WithValue(c.UserContext(), observability.UserIDKey, userID))
		return c.Next()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
