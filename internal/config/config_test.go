package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahinestrog/bookshop/internal/config"
)

func Test_FromEnv_Defaults(t *testing.T) {
	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "127.0.0.1:50051", cfg.GRPCAddr)
	assert.Empty(t, cfg.GRPCToken)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 120, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Empty(t, cfg.RabbitURL)
	assert.False(t, cfg.SeedOnStart)
}

func Test_FromEnv_Overrides(t *testing.T) {
	t.Setenv("BOOKSHOP_DB_DRIVER", "sqlite3")
	t.Setenv("BOOKSHOP_SEED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_PASSWORD", "secret12")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.True(t, cfg.SeedOnStart)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)
	assert.Equal(t, "root@example.com", cfg.AdminEmail)
}

func Test_FromEnv_Rejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown_driver", "BOOKSHOP_DB_DRIVER", "postgres"},
		{"unknown_log_format", "LOG_FORMAT", "xml"},
		{"bad_seed_flag", "BOOKSHOP_SEED", "maybe"},
		{"bad_window", "RATE_LIMIT_WINDOW", "soon"},
		{"zero_limit", "RATE_LIMIT_REQUESTS", "0"},
		{"admin_without_password", "ADMIN_EMAIL", "root@example.com"},
		{"public_grpc_without_token", "BOOKSHOP_GRPC_ADDR", ":50051"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := config.FromEnv()
			assert.Error(t, err)
		})
	}
}

func Test_FromEnv_PublicGRPCWithToken(t *testing.T) {
	t.Setenv("BOOKSHOP_GRPC_ADDR", "0.0.0.0:50051")
	t.Setenv("BOOKSHOP_GRPC_TOKEN", "s3cret")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.GRPCToken)

	t.Setenv("BOOKSHOP_GRPC_TOKEN", "")
	t.Setenv("BOOKSHOP_GRPC_ADDR", "localhost:6000")
	_, err = config.FromEnv()
	assert.NoError(t, err)
}
