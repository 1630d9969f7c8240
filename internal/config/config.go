// Package config loads service configuration from config.toml, an optional
// environment overlay, a .env file, and PROMPTDEX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/promptdex/internal/identity"
	"github.com/JaimeStill/promptdex/pkg/cache"
	"github.com/JaimeStill/promptdex/pkg/database"
	"github.com/JaimeStill/promptdex/pkg/logging"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvPromptdexEnv             = "PROMPTDEX_ENV"
	EnvPromptdexShutdownTimeout = "PROMPTDEX_SHUTDOWN_TIMEOUT"
	EnvPromptdexVersion         = "PROMPTDEX_VERSION"
)

var databaseEnv = &database.Env{
	Host:             "PROMPTDEX_DB_HOST",
	Port:             "PROMPTDEX_DB_PORT",
	Name:             "PROMPTDEX_DB_NAME",
	User:             "PROMPTDEX_DB_USER",
	Password:         "PROMPTDEX_DB_PASSWORD",
	SSLMode:          "PROMPTDEX_DB_SSL_MODE",
	ApplicationName:  "PROMPTDEX_DB_APPLICATION_NAME",
	StatementTimeout: "PROMPTDEX_DB_STATEMENT_TIMEOUT",
	MaxOpenConns:     "PROMPTDEX_DB_MAX_OPEN_CONNS",
	MaxIdleConns:     "PROMPTDEX_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime:  "PROMPTDEX_DB_CONN_MAX_LIFETIME",
	ConnTimeout:      "PROMPTDEX_DB_CONN_TIMEOUT",
}

var cacheEnv = &cache.Env{
	Addr:        "PROMPTDEX_CACHE_ADDR",
	Password:    "PROMPTDEX_CACHE_PASSWORD",
	DB:          "PROMPTDEX_CACHE_DB",
	Prefix:      "PROMPTDEX_CACHE_PREFIX",
	TTL:         "PROMPTDEX_CACHE_TTL",
	DialTimeout: "PROMPTDEX_CACHE_DIAL_TIMEOUT",
}

var authEnv = &identity.Env{
	Mode:          "PROMPTDEX_AUTH_MODE",
	Secret:        "PROMPTDEX_AUTH_SECRET",
	Issuer:        "PROMPTDEX_AUTH_ISSUER",
	Audience:      "PROMPTDEX_AUTH_AUDIENCE",
	JWKSURL:       "PROMPTDEX_AUTH_JWKS_URL",
	UsernameClaim: "PROMPTDEX_AUTH_USERNAME_CLAIM",
}

var loggingEnv = &logging.Env{
	Level:  "PROMPTDEX_LOG_LEVEL",
	Format: "PROMPTDEX_LOG_FORMAT",
	File:   "PROMPTDEX_LOG_FILE",
}

// Config is the root configuration for the catalog service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Cache           cache.Config    `toml:"cache"`
	Auth            identity.Config `toml:"auth"`
	Logging         logging.Config  `toml:"logging"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the PROMPTDEX_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPromptdexEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads .env (if present) into the process environment, then the base
// config (if present), applies any environment overlay, and finalizes all
// values. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Cache.Merge(&overlay.Cache)
	c.Auth.Merge(&overlay.Auth)
	c.Logging.Merge(&overlay.Logging)
	c.API.Merge(&overlay.API)
}

// Finalize applies defaults, environment overrides, and validation to every
// section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvPromptdexShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvPromptdexVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvPromptdexEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
