package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Reads the yaml file", func(t *testing.T) {
		// Given: a config file overriding a few values
		path := filepath.Join(t.TempDir(), "config.yml")
		content := "log-level: debug\nhttp-port: \"8000\"\nredis:\n  enabled: true\n  snapshot-ttl: 5m\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// When: the config is loaded
		conf, err := Load(path)
		require.NoError(t, err)

		// Then: file values win and defaults fill the rest
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "8000", conf.HTTPPort)
		assert.Equal(t, "9091", conf.SocketPort)
		assert.True(t, conf.Redis.Enabled)
		assert.Equal(t, 5*time.Minute, conf.Redis.SnapshotTTL)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, 32, conf.Session.MaxNameLength)
	})

	t.Run("Falls back to the environment without a file", func(t *testing.T) {
		// Given: no config file and an env override
		t.Setenv("SOCKET_PORT", "7000")

		// When: a missing path is loaded
		conf, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)

		// Then: env and defaults are used
		assert.Equal(t, "7000", conf.SocketPort)
		assert.Equal(t, "info", conf.LogLevel)
		assert.False(t, conf.Redis.Enabled)
		assert.Equal(t, "session", conf.Redis.ChannelPrefix)
	})
}
