package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "PROMPTDEX_SERVER_HOST"
	EnvServerPort              = "PROMPTDEX_SERVER_PORT"
	EnvServerReadTimeout       = "PROMPTDEX_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "PROMPTDEX_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "PROMPTDEX_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "PROMPTDEX_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "PROMPTDEX_SERVER_SHUTDOWN_TIMEOUT"
	EnvServerMaxHeaderBytes    = "PROMPTDEX_SERVER_MAX_HEADER_BYTES"
)

// Header limits. The floor leaves room for an OIDC bearer token carrying
// group claims.
const (
	minHeaderBytes     = 8 << 10
	maxHeaderBytes     = 1 << 20
	defaultHeaderBytes = 32 << 10
)

// ServerConfig holds HTTP server parameters. Durations are strings in
// time.ParseDuration form.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
	MaxHeaderBytes    int    `toml:"max_header_bytes"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return parseDuration(c.ReadTimeout)
}

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return parseDuration(c.ReadHeaderTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return parseDuration(c.WriteTimeout)
}

func (c *ServerConfig) IdleTimeoutDuration() time.Duration {
	return parseDuration(c.IdleTimeout)
}

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	for _, f := range c.durationFields(overlay) {
		if f.v != "" {
			*f.dst = f.v
		}
	}
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.MaxHeaderBytes != 0 {
		c.MaxHeaderBytes = overlay.MaxHeaderBytes
	}
}

type durationField struct {
	name string
	env  string
	def  string
	dst  *string
	v    string
}

// durationFields lists the duration settings of c paired with the matching
// values of other.
func (c *ServerConfig) durationFields(other *ServerConfig) []durationField {
	return []durationField{
		{"read_timeout", EnvServerReadTimeout, "1m", &c.ReadTimeout, other.ReadTimeout},
		{"read_header_timeout", EnvServerReadHeaderTimeout, "10s", &c.ReadHeaderTimeout, other.ReadHeaderTimeout},
		{"write_timeout", EnvServerWriteTimeout, "30s", &c.WriteTimeout, other.WriteTimeout},
		{"idle_timeout", EnvServerIdleTimeout, "2m", &c.IdleTimeout, other.IdleTimeout},
		{"shutdown_timeout", EnvServerShutdownTimeout, "30s", &c.ShutdownTimeout, other.ShutdownTimeout},
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = defaultHeaderBytes
	}
	for _, f := range c.durationFields(c) {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv(EnvServerMaxHeaderBytes); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxHeaderBytes = n
		}
	}
	for _, f := range c.durationFields(c) {
		if v := os.Getenv(f.env); v != "" {
			*f.dst = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, f := range c.durationFields(c) {
		d, err := time.ParseDuration(*f.dst)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid %s: %s must be positive", f.name, *f.dst)
		}
	}
	if c.ReadHeaderTimeoutDuration() > c.ReadTimeoutDuration() {
		return fmt.Errorf("invalid read_header_timeout: %s exceeds read_timeout %s", c.ReadHeaderTimeout, c.ReadTimeout)
	}
	if c.MaxHeaderBytes < minHeaderBytes || c.MaxHeaderBytes > maxHeaderBytes {
		return fmt.Errorf("invalid max_header_bytes: %d outside [%d, %d]", c.MaxHeaderBytes, minHeaderBytes, maxHeaderBytes)
	}
	return nil
}

func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
