package server

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DefaultAddr           = ":8080"
	DefaultReadBufferSize = 1024
)

// Config holds the engine settings. Zero values for MaxConnections and
// ReadTimeout mean unbounded.
type Config struct {
	Addr           string        `envconfig:"ADDR" default:":8080"`
	BaseDir        string        `envconfig:"BASE_DIR" default:"."`
	ReadBufferSize int           `envconfig:"READ_BUFFER_SIZE" default:"1024"`
	MaxConnections int64         `envconfig:"MAX_CONNECTIONS" default:"0"`
	ReadTimeout    time.Duration `envconfig:"READ_TIMEOUT" default:"0s"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"console"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Addr:           DefaultAddr,
		BaseDir:        ".",
		ReadBufferSize: DefaultReadBufferSize,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// ConfigFromEnv reads the config from environment variables named
// <prefix>_ADDR, <prefix>_BASE_DIR and so on.
func ConfigFromEnv(prefix string) (Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load server config: %w", err)
	}
	return sanitizeConfig(cfg), nil
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}
	if cfg.MaxConnections < 0 {
		cfg.MaxConnections = 0
	}
	if cfg.ReadTimeout < 0 {
		cfg.ReadTimeout = 0
	}
	return cfg
}
