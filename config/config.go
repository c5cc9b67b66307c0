// Package config loads the server configuration from environment variables.
// A .env file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// Config carries every setting of the server, one struct per concern.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	JWT     JWTConfig
	Session SessionConfig
	CORS    CORSConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"9090"`
}

// StorageConfig selects the durable read-state backend.
type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	Path   string `env:"STORAGE_PATH" envDefault:"./data/readstate.db"`
}

// JWTConfig holds the secret used to verify viewer tokens issued by the
// authentication service. An empty secret means every request is a guest.
type JWTConfig struct {
	Secret string `env:"JWT_SECRET"`
}

// SessionConfig controls how long an idle execution context stays alive
// and how many a single client IP may open per window. OpenLimit 0
// disables the limit.
type SessionConfig struct {
	TTL             time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1m"`
	OpenLimit       int           `env:"SESSION_OPEN_LIMIT" envDefault:"30"`
	OpenWindow      time.Duration `env:"SESSION_OPEN_WINDOW" envDefault:"1m"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
}

// Load builds a Config from the environment.
func Load() (*Config, error) {
	// Missing .env is fine; production sets real variables.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverSQLite, DriverBolt, DriverBadger:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("STORAGE_PATH is required for driver %q", c.Storage.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.Server.Port)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("invalid SESSION_TTL: %s", c.Session.TTL)
	}
	if c.Session.CleanupInterval <= 0 {
		return fmt.Errorf("invalid SESSION_CLEANUP_INTERVAL: %s", c.Session.CleanupInterval)
	}
	if c.Session.OpenLimit < 0 {
		return fmt.Errorf("invalid SESSION_OPEN_LIMIT: %d", c.Session.OpenLimit)
	}
	if c.Session.OpenLimit > 0 && c.Session.OpenWindow <= 0 {
		return fmt.Errorf("invalid SESSION_OPEN_WINDOW: %s", c.Session.OpenWindow)
	}
	return nil
}

// Addr returns the listen address, e.g. "0.0.0.0:9090".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
