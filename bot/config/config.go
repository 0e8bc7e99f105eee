// Package config is the order bot configuration: the shared core sections
// plus database, state backend and catalog settings.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/mayak/orderbot/core/config"
	coredatabase "github.com/mayak/orderbot/core/database"
)

// State backends.
const (
	StateMemory = "memory"
	StateRedis  = "redis"
)

// StateConfig selects where conversation state lives.
type StateConfig struct {
	Backend string `yaml:"backend" envconfig:"STATE_BACKEND"`
	// TTLSeconds expires idle conversations in Redis; 0 keeps them.
	TTLSeconds     int `yaml:"ttl_seconds" envconfig:"STATE_TTL_SECONDS"`
	LockTTLSeconds int `yaml:"lock_ttl_seconds" envconfig:"STATE_LOCK_TTL_SECONDS"`
}

// TTL returns TTLSeconds as a duration.
func (s StateConfig) TTL() time.Duration { return time.Duration(s.TTLSeconds) * time.Second }

// LockTTL returns LockTTLSeconds as a duration.
func (s StateConfig) LockTTL() time.Duration { return time.Duration(s.LockTTLSeconds) * time.Second }

// RedisConfig points at the Redis used by the redis state backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// CatalogConfig configures catalog seeding.
type CatalogConfig struct {
	// SeedFile is a YAML catalog upserted at startup; empty skips seeding.
	SeedFile string `yaml:"seed_file" envconfig:"CATALOG_SEED_FILE"`
}

// Config is the full order bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	State    StateConfig         `yaml:"state"`
	Redis    RedisConfig         `yaml:"redis"`
	Catalog  CatalogConfig       `yaml:"catalog"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the YAML file at path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	c.State.Backend = strings.ToLower(strings.TrimSpace(c.State.Backend))
	switch c.State.Backend {
	case "":
		c.State.Backend = StateMemory
	case StateMemory:
	case StateRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when state.backend is %q", StateRedis)
		}
	default:
		return fmt.Errorf("invalid state.backend %q; allowed: memory, redis", c.State.Backend)
	}
	if c.State.TTLSeconds < 0 || c.State.LockTTLSeconds < 0 {
		return fmt.Errorf("state ttl settings must be >= 0")
	}
	c.Catalog.SeedFile = strings.TrimSpace(c.Catalog.SeedFile)
	return nil
}
