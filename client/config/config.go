package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/gear6io/gpsd4go/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment override, e.g. GPSD4GO_SERVER_HOST.
	EnvPrefix = "GPSD4GO_"

	configFileName = "gpsd4go.yml"

	// UnboundedAttempts disables the reconnect budget.
	UnboundedAttempts = -1

	minReceiveBuffer = 512
)

// Config represents the client configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server" envPrefix:"SERVER_"`
	Session  SessionConfig  `yaml:"session" toml:"session" envPrefix:"SESSION_"`
	Dispatch DispatchConfig `yaml:"dispatch" toml:"dispatch" envPrefix:"DISPATCH_"`
	Relay    RelayConfig    `yaml:"relay" toml:"relay" envPrefix:"RELAY_"`
	Logging  LogConfig      `yaml:"logging" toml:"logging" envPrefix:"LOG_"`
}

// ServerConfig is the gpsd endpoint
type ServerConfig struct {
	Host string `yaml:"host" toml:"host" env:"HOST"`
	Port int    `yaml:"port" toml:"port" env:"PORT"`
}

// SessionConfig holds connection and reconnect behaviour
type SessionConfig struct {
	ConnectTimeout    time.Duration `yaml:"connect_timeout" toml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" toml:"idle_timeout" env:"IDLE_TIMEOUT"`
	Reconnect         bool          `yaml:"reconnect" toml:"reconnect" env:"RECONNECT"`
	ReconnectAttempts int           `yaml:"reconnect_attempts" toml:"reconnect_attempts" env:"RECONNECT_ATTEMPTS"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval" toml:"reconnect_interval" env:"RECONNECT_INTERVAL"`
	ReceiveBufferSize int           `yaml:"receive_buffer_size" toml:"receive_buffer_size" env:"RECEIVE_BUFFER_SIZE"`
}

// DispatchConfig sizes the handler worker pool
type DispatchConfig struct {
	Workers   int `yaml:"workers" toml:"workers" env:"WORKERS"`
	QueueSize int `yaml:"queue_size" toml:"queue_size" env:"QUEUE_SIZE"`
}

// RelayConfig configures the WebSocket relay started by gpsdctl relay
type RelayConfig struct {
	Listen string `yaml:"listen" toml:"listen" env:"LISTEN"`
	Path   string `yaml:"path" toml:"path" env:"PATH"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level    string `yaml:"level" toml:"level" env:"LEVEL"`
	Format   string `yaml:"format" toml:"format" env:"FORMAT"` // auto, console or json
	FilePath string `yaml:"file_path" toml:"file_path" env:"FILE"`
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 2947,
		},
		Session: SessionConfig{
			ConnectTimeout:    3 * time.Second,
			IdleTimeout:       120 * time.Second,
			Reconnect:         true,
			ReconnectAttempts: UnboundedAttempts,
			ReconnectInterval: 3 * time.Second,
			ReceiveBufferSize: 4096,
		},
		Dispatch: DispatchConfig{
			Workers:   4,
			QueueSize: 256,
		},
		Relay: RelayConfig{
			Listen: ":8080",
			Path:   "/ws",
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads the first config file found in the search path, or the defaults,
// then applies environment overrides.
func Load() (*Config, error) {
	if path := findConfigFile(); path != "" {
		return LoadFromFile(path)
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a yaml or toml file and applies
// environment overrides on top.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(ErrConfigFileReadFailed, "failed to read config file", err).
			AddContext("path", path)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(ErrConfigFileParseFailed, "failed to parse config file", err).
			AddContext("path", path)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GPSD4GO_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New(ErrConfigEnvParseFailed, "failed to apply environment overrides", err)
	}
	return nil
}

// Save writes the configuration as yaml, or toml for a .toml path.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(c)
		data = []byte(b.String())
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New(ErrConfigFileMarshalFailed, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to write config file", err).
			AddContext("path", path)
	}
	return nil
}

func findConfigFile() string {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(homeDir, ".gpsd4go", configFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	etcPath := filepath.Join("/etc/gpsd4go", configFileName)
	if _, err := os.Stat(etcPath); err == nil {
		return etcPath
	}

	return ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return errors.New(ErrServerHostEmpty, "server host cannot be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf(ErrServerPortInvalid, "invalid server port: %d", c.Server.Port)
	}

	s := c.Session
	if s.ConnectTimeout < 0 || s.IdleTimeout < 0 || s.ReconnectInterval < 0 {
		return errors.New(ErrSessionInvalid, "session durations cannot be negative")
	}
	if s.ReconnectAttempts < UnboundedAttempts {
		return errors.Newf(ErrSessionInvalid, "invalid reconnect attempts: %d", s.ReconnectAttempts)
	}
	if s.ReceiveBufferSize < minReceiveBuffer {
		return errors.Newf(ErrSessionInvalid, "receive buffer must be at least %d bytes", minReceiveBuffer)
	}

	if c.Dispatch.Workers < 1 || c.Dispatch.QueueSize < 1 {
		return errors.New(ErrDispatchInvalid, "dispatch workers and queue size must be positive")
	}
	return nil
}

// Address returns host:port of the gpsd server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SetAddress parses host[:port] into the server section. A missing port keeps
// the configured one.
func (c *Config) SetAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// bare host
		c.Server.Host = addr
		return nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return errors.Newf(ErrServerPortInvalid, "invalid server port: %q", port)
	}
	if host != "" {
		c.Server.Host = host
	}
	c.Server.Port = p
	return nil
}
