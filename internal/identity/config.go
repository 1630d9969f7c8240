package identity

import (
	"fmt"
	"os"
)

// Verification modes.
const (
	ModeNone = "none"
	ModeHMAC = "hmac"
	ModeOIDC = "oidc"
)

// Config selects how bearer tokens are verified.
//
// In hmac mode tokens are HS256/384/512 JWTs signed with Secret. In oidc
// mode tokens are ID tokens from Issuer, checked against keys from JWKSURL
// (or the issuer's discovery document when JWKSURL is empty). Audience,
// when set, must appear in the token's aud claim. UsernameClaim names the
// claim holding the caller's username.
type Config struct {
	Mode          string `toml:"mode"`
	Secret        string `toml:"secret"`
	Issuer        string `toml:"issuer"`
	Audience      string `toml:"audience"`
	JWKSURL       string `toml:"jwks_url"`
	UsernameClaim string `toml:"username_claim"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Mode          string
	Secret        string
	Issuer        string
	Audience      string
	JWKSURL       string
	UsernameClaim string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for _, f := range []struct {
		dst *string
		v   string
	}{
		{&c.Mode, overlay.Mode},
		{&c.Secret, overlay.Secret},
		{&c.Issuer, overlay.Issuer},
		{&c.Audience, overlay.Audience},
		{&c.JWKSURL, overlay.JWKSURL},
		{&c.UsernameClaim, overlay.UsernameClaim},
	} {
		if f.v != "" {
			*f.dst = f.v
		}
	}
}

func (c *Config) loadDefaults() {
	if c.Mode == "" {
		c.Mode = ModeHMAC
	}
	if c.UsernameClaim == "" {
		c.UsernameClaim = "sub"
	}
}

func (c *Config) loadEnv(env *Env) {
	for _, f := range []struct {
		dst  *string
		name string
	}{
		{&c.Mode, env.Mode},
		{&c.Secret, env.Secret},
		{&c.Issuer, env.Issuer},
		{&c.Audience, env.Audience},
		{&c.JWKSURL, env.JWKSURL},
		{&c.UsernameClaim, env.UsernameClaim},
	} {
		if f.name == "" {
			continue
		}
		if v := os.Getenv(f.name); v != "" {
			*f.dst = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeNone:
	case ModeHMAC:
		if len(c.Secret) < 32 {
			return fmt.Errorf("hmac secret must be at least 32 bytes")
		}
	case ModeOIDC:
		if c.Issuer == "" {
			return fmt.Errorf("oidc issuer required")
		}
	default:
		return fmt.Errorf("invalid auth mode %q: expected none, hmac, or oidc", c.Mode)
	}
	return nil
}
