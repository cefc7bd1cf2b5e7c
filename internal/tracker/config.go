package tracker

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the tracker settings. An empty RedisURL keeps state in
// memory.
type Config struct {
	RedisURL       string        `envconfig:"REDIS_URL"`
	SessionSecret  string        `envconfig:"SESSION_SECRET" default:"change-me"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	BcryptCost     int           `envconfig:"BCRYPT_COST" default:"10"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
}

func DefaultConfig() Config {
	return Config{
		SessionSecret:  "change-me",
		SessionTTL:     24 * time.Hour,
		BcryptCost:     bcrypt.DefaultCost,
		RequestTimeout: 5 * time.Second,
	}
}

// ConfigFromEnv reads <prefix>_REDIS_URL, <prefix>_SESSION_SECRET and so on
func ConfigFromEnv(prefix string) (Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load tracker config: %w", err)
	}
	return sanitizeConfig(cfg), nil
}

func sanitizeConfig(cfg Config) Config {
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return cfg
}

// OpenStore returns a RedisStore when RedisURL is set, a MemoryStore
// otherwise
func (c Config) OpenStore() Store {
	if c.RedisURL == "" {
		return NewMemoryStore()
	}
	return NewRedisStore(c.RedisURL)
}
