// Package config loads server and CLI configuration from an optional YAML
// file and QKDOTP_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jaskrrish/qkd-otp/internal/logging"
	qkdcore "github.com/jaskrrish/qkd-otp/internal/qkd"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g. QKDOTP_SERVER_PORT
const EnvPrefix = "QKDOTP"

// Config is the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ProtocolConfig holds BB84 and cipher settings
type ProtocolConfig struct {
	// OversampleFactor multiplies the message bit count to size the raw exchange
	OversampleFactor int `mapstructure:"oversample_factor"`

	// MaxMessageBytes bounds the UTF-8 size of a message to encrypt
	MaxMessageBytes int `mapstructure:"max_message_bytes"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("protocol.oversample_factor", 8)
	v.SetDefault("protocol.max_message_bytes", 4096)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Default returns the configuration used when no file or environment is set
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg) // defaults always decode
	return &cfg
}

// Load reads configuration from path (optional) and the environment
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PORT is honored for platforms that inject it
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind port environment: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Protocol.OversampleFactor < 2 || c.Protocol.OversampleFactor > qkdcore.MaxOversampleFactor {
		return fmt.Errorf("oversample factor must be between 2 and %d, got %d",
			qkdcore.MaxOversampleFactor, c.Protocol.OversampleFactor)
	}

	if c.Protocol.MaxMessageBytes <= 0 {
		return fmt.Errorf("max message bytes must be positive, got %d", c.Protocol.MaxMessageBytes)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Log.Format)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/': %q", c.Metrics.Path)
	}

	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
