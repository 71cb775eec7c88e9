package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]string{
				"username": "tanguera",
				"email":    "Tanguera@Example.com",
				"password": "Password123",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Duplicate email",
			body: map[string]string{
				"username": "other",
				"email":    "tanguera@example.com",
				"password": "Password123",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing password",
			body:           map[string]string{"username": "nopass", "email": "nopass@example.com"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Invalid username",
			body: map[string]string{
				"username": "_bad",
				"email":    "bad@example.com",
				"password": "Password123",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, tt.expectedStatus, status, body.Error)
			if status == http.StatusOK {
				user := decodeObject(t, body.Data)
				assert.Equal(t, "tanguera@example.com", user["email"])
				assert.NotEmpty(t, user["api_token"])
				assert.NotContains(t, user, "password")
			}
		})
	}
}

func TestLoginAndMe(t *testing.T) {
	ts := newTestServer(t, nil)
	status, body := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "carlos",
		"email":    "carlos@example.com",
		"password": "Password123",
	})
	require.Equal(t, http.StatusOK, status, body.Error)

	t.Run("wrong password", func(t *testing.T) {
		status, body := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "carlos@example.com", "password": "nope12345",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid credentials", body.Error)
	})

	t.Run("missing fields", func(t *testing.T) {
		status, _ := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "carlos@example.com"})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	status, body = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "carlos@example.com", "password": "Password123",
	})
	require.Equal(t, http.StatusOK, status, body.Error)
	token, _ := decodeObject(t, body.Data)["api_token"].(string)
	require.NotEmpty(t, token)

	status, body = ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status, body.Error)
	me := decodeObject(t, body.Data)
	assert.Equal(t, "carlos", me["username"])
	assert.Equal(t, token, me["api_token"])
}

func TestLogout_RevokesTokenWithRedis(t *testing.T) {
	ts := newTestServer(t, newTestRedis(t))
	_, token := ts.user(t, "carlos", false)

	status, _ := ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := ts.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status, body.Error)

	status, body = ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", body.Error)
}

func TestAccessTokenCookie(t *testing.T) {
	ts := newTestServer(t, nil)
	_, token := ts.user(t, "carlos", false)

	req := newRequest(http.MethodGet, "/api/auth/me")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	status, body := ts.send(t, req)
	assert.Equal(t, http.StatusOK, status, body.Error)
}
