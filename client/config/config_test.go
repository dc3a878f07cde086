package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:2947", cfg.Address())
	assert.Equal(t, 3*time.Second, cfg.Session.ConnectTimeout)
	assert.Equal(t, 120*time.Second, cfg.Session.IdleTimeout)
	assert.True(t, cfg.Session.Reconnect)
	assert.Equal(t, UnboundedAttempts, cfg.Session.ReconnectAttempts)
	assert.Equal(t, 3*time.Second, cfg.Session.ReconnectInterval)
	assert.Equal(t, 4096, cfg.Session.ReceiveBufferSize)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpsd4go.yml")
	content := `
server:
  host: gps.local
  port: 3000
session:
  reconnect: false
  reconnect_attempts: 5
  reconnect_interval: 500ms
  idle_timeout: 0s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "gps.local:3000", cfg.Address())
	assert.False(t, cfg.Session.Reconnect)
	assert.Equal(t, 5, cfg.Session.ReconnectAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Session.ReconnectInterval)
	assert.Equal(t, time.Duration(0), cfg.Session.IdleTimeout)
	// untouched fields keep defaults
	assert.Equal(t, 3*time.Second, cfg.Session.ConnectTimeout)
	assert.Equal(t, 4, cfg.Dispatch.Workers)
}

func TestLoadFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpsd4go.toml")
	content := `
[server]
host = "10.0.0.7"

[session]
connect_timeout = "1s"
receive_buffer_size = 8192

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.7:2947", cfg.Address())
	assert.Equal(t, time.Second, cfg.Session.ConnectTimeout)
	assert.Equal(t, 8192, cfg.Session.ReceiveBufferSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.True(t, errors.Is(err, ErrConfigFileReadFailed))

	path := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))
	_, err = LoadFromFile(path)
	assert.True(t, errors.Is(err, ErrConfigFileParseFailed))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GPSD4GO_SERVER_HOST", "envhost")
	t.Setenv("GPSD4GO_SERVER_PORT", "4000")
	t.Setenv("GPSD4GO_SESSION_RECONNECT", "false")
	t.Setenv("GPSD4GO_SESSION_RECONNECT_INTERVAL", "250ms")
	t.Setenv("GPSD4GO_DISPATCH_WORKERS", "8")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "envhost:4000", cfg.Address())
	assert.False(t, cfg.Session.Reconnect)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.ReconnectInterval)
	assert.Equal(t, 8, cfg.Dispatch.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)

	t.Setenv("GPSD4GO_SERVER_PORT", "not-a-port")
	assert.True(t, errors.Is(DefaultConfig().ApplyEnv(), ErrConfigEnvParseFailed))
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Server.Host = "roundtrip"
			cfg.Session.ReconnectAttempts = 2

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, cfg.Save(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   errors.Code
	}{
		{"empty host", func(c *Config) { c.Server.Host = " " }, ErrServerHostEmpty},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, ErrServerPortInvalid},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, ErrServerPortInvalid},
		{"negative interval", func(c *Config) { c.Session.ReconnectInterval = -time.Second }, ErrSessionInvalid},
		{"attempts below unbounded", func(c *Config) { c.Session.ReconnectAttempts = -2 }, ErrSessionInvalid},
		{"tiny buffer", func(c *Config) { c.Session.ReceiveBufferSize = 16 }, ErrSessionInvalid},
		{"no workers", func(c *Config) { c.Dispatch.Workers = 0 }, ErrDispatchInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestSetAddress(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetAddress("gps.example:3001"))
	assert.Equal(t, "gps.example:3001", cfg.Address())

	require.NoError(t, cfg.SetAddress("other"))
	assert.Equal(t, "other:3001", cfg.Address())

	require.NoError(t, cfg.SetAddress(":2948"))
	assert.Equal(t, "other:2948", cfg.Address())

	assert.Error(t, cfg.SetAddress("host:abc"))
}

func TestSetupLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gpsd4go.log")
	logger, err := SetupLogger(&LogConfig{Level: "debug", Format: FormatJSON, FilePath: path}, "test")
	require.NoError(t, err)

	logger.Info().Str("device", "/dev/ttyUSB0").Msg("Device attached")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"message":"Device attached"`)

	_, err = SetupLogger(&LogConfig{Level: "loud"}, "test")
	assert.True(t, errors.Is(err, ErrLogLevelInvalid))
}
