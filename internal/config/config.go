package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Stream     StreamConfig     `mapstructure:"stream"`
	Hub        HubConfig        `mapstructure:"hub"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	WebRoot         string        `mapstructure:"web_root"`
}

type StreamConfig struct {
	RateHz    int `mapstructure:"rate_hz"`
	MaxRateHz int `mapstructure:"max_rate_hz"`
}

type HubConfig struct {
	Mock            bool          `mapstructure:"mock"`
	Bus             string        `mapstructure:"bus"`
	Address         uint16        `mapstructure:"address"`
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
	ResponseTimeout time.Duration `mapstructure:"response_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
}

type TelemetryConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	ClientName    string        `mapstructure:"client_name"`
	Buffer        int           `mapstructure:"buffer"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type MonitoringConfig struct {
	LogLevel    string `mapstructure:"log_level"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// AuthConfig holds the single operator login. It is a placeholder, not a
// security boundary.
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Flags declares the command line overrides understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("curecraft", pflag.ContinueOnError)
	fs.Int("port", 8080, "HTTP port")
	fs.String("web-root", "./web", "directory served as static files")
	fs.Bool("mock", false, "use the simulated sensor hub")
	fs.Int("rate", 20, "default stream rate in Hz")
	return fs
}

var flagKeys = map[string]string{
	"port":     "server.port",
	"web-root": "server.web_root",
	"mock":     "hub.mock",
	"rate":     "stream.rate_hz",
}

// Load initializes configuration from environment variables, an optional
// config file and, when fs is given, explicitly set command line flags.
func Load(fs *pflag.FlagSet, configPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CURECRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	setDefaults(v)

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{"./config", "."}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "0s") // streams stay open
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.web_root", "./web")

	// Stream defaults
	v.SetDefault("stream.rate_hz", 20)
	v.SetDefault("stream.max_rate_hz", 120)

	// Hub defaults
	v.SetDefault("hub.mock", false)
	v.SetDefault("hub.bus", "/dev/i2c-1")
	v.SetDefault("hub.address", 0x08)
	v.SetDefault("hub.scan_interval", "3s")
	v.SetDefault("hub.response_timeout", "100ms")
	v.SetDefault("hub.max_retries", 3)
	v.SetDefault("hub.retry_delay", "100ms")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.url", "nats://127.0.0.1:4222")
	v.SetDefault("telemetry.client_name", "curecraft-monitor")
	v.SetDefault("telemetry.buffer", 256)
	v.SetDefault("telemetry.reconnect_wait", "500ms")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "curecraft:patient")

	// Monitoring defaults
	v.SetDefault("monitoring.log_level", "info")
	v.SetDefault("monitoring.metrics_path", "/metrics")

	// Auth defaults
	v.SetDefault("auth.username", "prog6")
	v.SetDefault("auth.password", "WeLikeAChallenge2025!")
}

func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", config.Server.Port)
	}
	if config.Stream.MaxRateHz < 1 {
		return fmt.Errorf("stream max_rate_hz must be positive")
	}
	if config.Stream.RateHz < 1 || config.Stream.RateHz > config.Stream.MaxRateHz {
		return fmt.Errorf("stream rate_hz %d must be within 1..%d", config.Stream.RateHz, config.Stream.MaxRateHz)
	}
	if config.Hub.Address == 0 || config.Hub.Address > 0x7F {
		return fmt.Errorf("hub address 0x%x is not a 7-bit address", config.Hub.Address)
	}
	if !config.Hub.Mock && config.Hub.Bus == "" {
		return fmt.Errorf("hub bus is required unless mock mode is enabled")
	}
	if config.Hub.MaxRetries < 1 {
		return fmt.Errorf("hub max_retries must be at least 1")
	}
	if config.Hub.ScanInterval <= 0 || config.Hub.ResponseTimeout <= 0 {
		return fmt.Errorf("hub scan_interval and response_timeout must be positive")
	}
	if config.Telemetry.Enabled && config.Telemetry.URL == "" {
		return fmt.Errorf("telemetry url is required when telemetry is enabled")
	}
	switch config.Monitoring.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("monitoring log_level %q must be debug, info, warn or error", config.Monitoring.LogLevel)
	}
	if config.Redis.Enabled && config.Redis.Host == "" {
		return fmt.Errorf("redis host is required when redis is enabled")
	}
	return nil
}
