package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./web", cfg.Server.WebRoot)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 20, cfg.Stream.RateHz)
	assert.Equal(t, 120, cfg.Stream.MaxRateHz)
	assert.False(t, cfg.Hub.Mock)
	assert.Equal(t, "/dev/i2c-1", cfg.Hub.Bus)
	assert.Equal(t, uint16(0x08), cfg.Hub.Address)
	assert.Equal(t, 3*time.Second, cfg.Hub.ScanInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Hub.ResponseTimeout)
	assert.Equal(t, 3, cfg.Hub.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Hub.RetryDelay)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 256, cfg.Telemetry.Buffer)
	assert.Equal(t, "/metrics", cfg.Monitoring.MetricsPath)
	assert.Equal(t, "prog6", cfg.Auth.Username)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9090
stream:
  rate_hz: 60
hub:
  mock: true
  scan_interval: 5s
telemetry:
  enabled: true
  url: nats://broker:4222
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(nil, dir)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 60, cfg.Stream.RateHz)
	assert.True(t, cfg.Hub.Mock)
	assert.Equal(t, 5*time.Second, cfg.Hub.ScanInterval)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "nats://broker:4222", cfg.Telemetry.URL)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CURECRAFT_HUB__MOCK", "true")
	t.Setenv("CURECRAFT_SERVER__PORT", "8181")

	cfg, err := Load(nil, t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.Hub.Mock)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestLoad_Flags(t *testing.T) {
	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--mock", "--port", "7000", "--web-root", "/srv/web"}))

	cfg, err := Load(fs, t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.Hub.Mock)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/srv/web", cfg.Server.WebRoot)
	assert.Equal(t, 20, cfg.Stream.RateHz)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"rate above max": "stream:\n  rate_hz: 500\n",
		"bad address":    "hub:\n  address: 200\n",
		"no retries":     "hub:\n  max_retries: 0\n",
		"empty bus":      "hub:\n  bus: \"\"\n",
		"telemetry url":  "telemetry:\n  enabled: true\n  url: \"\"\n",
		"port":           "server:\n  port: 70000\n",
		"log level":      "monitoring:\n  log_level: loud\n",
	}
	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
			_, err := Load(nil, dir)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))
	_, err := Load(nil, dir)
	assert.Error(t, err)
}
