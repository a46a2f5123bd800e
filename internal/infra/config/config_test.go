package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, 50, cfg.RateLimitPerHour)
	assert.Equal(t, 3, cfg.MaxConcurrentSessions)
	assert.Equal(t, 24*time.Hour, cfg.Retention)
	assert.Equal(t, "zips", cfg.ZipDir)
	assert.InDelta(t, 1.0, cfg.TraceSampleRatio, 0)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_HOUR", "5")
	t.Setenv("TOOL_TIMEOUT", "30s")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RateLimitPerHour)
	assert.Equal(t, 30*time.Second, cfg.ToolTimeout)
	assert.True(t, cfg.MinIOUseSSL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_SESSIONS", "many")

	_, err := Load()
	assert.Error(t, err)
}
