package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadServerAppliesDefaults(t *testing.T) {
	cfg, err := LoadServer("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "gpsfollower/fix", cfg.MQTTTopic)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadServerOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9000"
secret: hunter2
data_dir: /tmp/follower
log:
  level: debug
  json: true
`)
	cfg, err := LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "hunter2", cfg.Secret)
	assert.Equal(t, "/tmp/follower", cfg.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	// Untouched keys keep defaults.
	assert.Equal(t, "gpsfollower/fix", cfg.MQTTTopic)
}

func TestLoadTrackerParsesDurations(t *testing.T) {
	path := writeConfig(t, `
server_url: http://example.com:8080
secret: hunter2
fallback_ssid: rescue
fallback_password: rescuepass
interval: 2s
connect_timeout: 10s
backoff_window: 30s
`)
	cfg, err := LoadTracker(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Interval.Std())
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout.Std())
	assert.Equal(t, 30*time.Second, cfg.BackoffWindow.Std())
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.Equal(t, uint(9600), cfg.BaudRate)
}

func TestLoadServerMissingFile(t *testing.T) {
	_, err := LoadServer("/does/not/exist.yaml")
	assert.Error(t, err)
}
