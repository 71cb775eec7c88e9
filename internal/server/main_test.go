package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"mundotango/internal/config"
	"mundotango/internal/database"
	"mundotango/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testServer is a fully wired Server on SQLite with local fallbacks.
type testServer struct {
	*Server
	app *fiber.App
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:            "test",
		Port:           "0",
		JWTSecret:      "test_secret",
		AllowedOrigins: "http://localhost:3000",
		MediaBaseURL:   "http://localhost:5000",
		UploadDir:      t.TempDir(),
		MaxUploadMB:    2,
	}
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestServer(t *testing.T, rdb *redis.Client) *testServer {
	t.Helper()
	s, err := NewServerWithDeps(testConfig(t), setupSQLite(t), rdb, Options{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := s.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testServer{Server: s, app: s.App()}
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// user inserts an active user and returns it with a signed token.
func (ts *testServer) user(t *testing.T, username string, admin bool) (*models.User, string) {
	t.Helper()
	u := &models.User{
		Name:     username,
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		IsActive: true,
		IsAdmin:  admin,
	}
	require.NoError(t, ts.db.Create(u).Error)
	token, _, err := ts.auth.IssueToken(u.ID, u.Username)
	require.NoError(t, err)
	return u, token
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// do sends a JSON request; token may be empty.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.send(t, req)
}

func (ts *testServer) send(t *testing.T, req *http.Request) (int, apiResponse) {
	t.Helper()
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func decodeObject(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func decodeList(t *testing.T, raw json.RawMessage) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
