package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	strong := "a-production-secret-of-at-least-32-chars"
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{"missing port", Config{JWTSecret: strong}, true},
		{"missing secret", Config{Port: "5000"}, true},
		{"negative upload size", Config{Port: "5000", JWTSecret: strong, MaxUploadMB: -1}, true},
		{"development with short secret", Config{Env: "development", Port: "5000", JWTSecret: "short"}, false},
		{"production with default secret", Config{Env: "production", Port: "5000", JWTSecret: defaultJWTSecret, DBPassword: "x", DBSSLMode: "require"}, true},
		{"production with weak db password", Config{Env: "production", Port: "5000", JWTSecret: strong, DBPassword: "postgres", DBSSLMode: "require"}, true},
		{"production without tls", Config{Env: "prod", Port: "5000", JWTSecret: strong, DBPassword: "s3cret!", DBSSLMode: "disable"}, true},
		{"production with database url", Config{Env: "production", Port: "5000", JWTSecret: strong, DatabaseURL: "postgres://u:p@db/mt"}, false},
		{"production fully configured", Config{Env: "production", Port: "5000", JWTSecret: strong, DBPassword: "s3cret!", DBSSLMode: "verify-full"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	c := &Config{DBHost: "db", DBPort: "5432", DBUser: "mt", DBPassword: "pw", DBName: "tango"}
	assert.Equal(t, "host=db port=5432 user=mt password=pw dbname=tango sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://mt:pw@db:5432/tango"
	assert.Equal(t, "postgres://mt:pw@db:5432/tango", c.DSN())
}

func TestConfig_FilterPatterns(t *testing.T) {
	c := &Config{LogFilterPatterns: " websocket ping | | GORM slow query|"}
	assert.Equal(t, []string{"websocket ping", "GORM slow query"}, c.FilterPatterns())
	assert.Empty(t, (&Config{}).FilterPatterns())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "6001")
	t.Setenv("MENTION_CACHE_TTL_SECONDS", "42")
	t.Setenv("MEDIA_BASE_URL", "https://cdn.mundotango.life")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "6001", cfg.Port)
	assert.Equal(t, 42, cfg.MentionCacheTTLSeconds)
	assert.Equal(t, "https://cdn.mundotango.life", cfg.MediaBaseURL)
	assert.Equal(t, "mundo_tango", cfg.DBName)
}
