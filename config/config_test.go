package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 1000, cfg.Socket.MaxConnections)
	assert.Equal(t, 256, cfg.Socket.SendQueueSize)
	assert.Equal(t, 30*time.Second, cfg.Heartbeat.Interval())
	assert.Equal(t, 60*time.Second, cfg.Heartbeat.Timeout())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "streamgate:ws:", cfg.Redis.Prefix)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9090"
heartbeat:
  interval_seconds: 10
  timeout_seconds: 20
auth:
  static_tokens:
    dev-token: dev-user
redis:
  enabled: false
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Heartbeat.Interval())
	assert.Equal(t, 20*time.Second, cfg.Heartbeat.Timeout())
	assert.Equal(t, "dev-user", cfg.Auth.StaticTokens["dev-token"])
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched fields keep defaults.
	assert.Equal(t, 1000, cfg.Socket.MaxConnections)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STREAMGATE_ADDR", ":7070")
	t.Setenv("STREAMGATE_JWT_SECRET", "supersecret")
	t.Setenv("REDIS_ADDR", "redis.example.com:6380")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "supersecret", cfg.Auth.JWTSecret)
	assert.Equal(t, "redis.example.com:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoadInvalidEnvDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadHeartbeat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
heartbeat:
  interval_seconds: 30
  timeout_seconds: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
