package token

import (
	"errors"
	"time"
)

// Config configures the token service. Signing is HS256.
type Config struct {
	// Secret is the HMAC signing key (required).
	Secret string `yaml:"secret" mapstructure:"secret"`

	// Issuer is the "iss" claim stamped on and required of every token.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`

	// Audience is the "aud" claim stamped on and required of every token.
	Audience string `yaml:"audience" mapstructure:"audience"`

	// AccessTTL is the lifetime of access tokens (default: 2h).
	AccessTTL time.Duration `yaml:"access_ttl" mapstructure:"access_ttl"`

	// RefreshTTL is the lifetime of refresh tokens (default: 7d).
	RefreshTTL time.Duration `yaml:"refresh_ttl" mapstructure:"refresh_ttl"`

	// RefreshThreshold marks a verified access token as due for refresh
	// when its remaining lifetime falls below this value (default: 5m).
	RefreshThreshold time.Duration `yaml:"refresh_threshold" mapstructure:"refresh_threshold"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "loomworks-authcore"
	}
	if c.Audience == "" {
		c.Audience = "loomworks-api"
	}
	if c.AccessTTL == 0 {
		c.AccessTTL = 2 * time.Hour
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.RefreshThreshold == 0 {
		c.RefreshThreshold = 5 * time.Minute
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("token: secret is required")
	}
	if len(c.Secret) < 32 {
		return errors.New("token: secret must be at least 32 bytes")
	}
	return nil
}
