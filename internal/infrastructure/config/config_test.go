package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 25, cfg.DatabaseMaxConns)
	require.Equal(t, 5*time.Second, cfg.LockTimeout)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.Equal(t, 100, cfg.OutboxBatchSize)
	require.False(t, cfg.AuthEnabled)
	require.Empty(t, cfg.JWTSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOCK_TIMEOUT", "250ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.HTTPPort)
	require.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.AuthEnabled)
	require.Equal(t, "secret", cfg.JWTSecret)
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("LOCK_TIMEOUT", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
}
