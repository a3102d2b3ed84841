package ratelimit

import (
	"fmt"
	"time"
)

// Failure policy values for store errors during a rate-limit check.
const (
	PolicyOpen   = "open"
	PolicyClosed = "closed"
)

// Named limit classes. Each class maps to a ClassConfig in BuiltinClasses.
const (
	ClassDefault   = "DEFAULT"
	ClassLogin     = "LOGIN"
	ClassSensitive = "SENSITIVE"
	ClassQuery     = "QUERY"
	ClassUpload    = "UPLOAD"
)

// ClassConfig describes one sliding-window limit class.
type ClassConfig struct {
	// Window is the trailing interval over which requests are counted.
	Window time.Duration `mapstructure:"window" json:"window"`
	// MaxRequests is the number of requests admitted per window.
	MaxRequests int `mapstructure:"max_requests" json:"max_requests"`
	// BlockDuration, when non-zero, blocks the identifier for this long
	// after it exceeds the limit.
	BlockDuration time.Duration `mapstructure:"block_duration" json:"block_duration"`
	// Message is returned to the caller on rejection.
	Message string `mapstructure:"message" json:"message"`
}

// BuiltinClasses returns the standard limit classes.
func BuiltinClasses() map[string]ClassConfig {
	return map[string]ClassConfig{
		ClassDefault: {
			Window:      15 * time.Minute,
			MaxRequests: 100,
			Message:     "Too many requests. Please wait a moment and try again.",
		},
		ClassLogin: {
			Window:        15 * time.Minute,
			MaxRequests:   5,
			BlockDuration: 30 * time.Minute,
			Message:       "Too many login attempts. Please try again later.",
		},
		ClassSensitive: {
			Window:      5 * time.Minute,
			MaxRequests: 10,
			Message:     "Too many attempts for this operation. Please slow down.",
		},
		ClassQuery: {
			Window:      time.Minute,
			MaxRequests: 60,
			Message:     "Query rate limit reached. Please wait a moment.",
		},
		ClassUpload: {
			Window:      10 * time.Minute,
			MaxRequests: 20,
			Message:     "Upload rate limit reached. Please wait before uploading more files.",
		},
	}
}

// ClassByName looks up a builtin class by its name.
func ClassByName(name string) (ClassConfig, bool) {
	c, ok := BuiltinClasses()[name]
	return c, ok
}

// Config holds limiter-wide settings, independent of any single class.
type Config struct {
	// FailurePolicy decides what happens when the window store is
	// unreachable: "open" admits the request, "closed" rejects it.
	FailurePolicy string `mapstructure:"failure_policy" json:"failure_policy"`
	// Retention bounds how long window and violation records are kept.
	Retention time.Duration `mapstructure:"retention" json:"retention"`
	// SweepInterval is how often the cleanup pass runs.
	SweepInterval time.Duration `mapstructure:"sweep_interval" json:"sweep_interval"`
	// SuspicionThreshold is the reputation score at which an IP is
	// automatically blocked.
	SuspicionThreshold int `mapstructure:"suspicion_threshold" json:"suspicion_threshold"`
	// AutoBlockDuration is how long an automatic reputation block lasts.
	AutoBlockDuration time.Duration `mapstructure:"auto_block_duration" json:"auto_block_duration"`
	// StoreTimeout bounds the store calls made by a sweep iteration.
	StoreTimeout time.Duration `mapstructure:"store_timeout" json:"store_timeout"`
}

// ApplyDefaults fills in zero values with production defaults.
func (c *Config) ApplyDefaults() {
	if c.FailurePolicy == "" {
		c.FailurePolicy = PolicyOpen
	}
	if c.Retention == 0 {
		c.Retention = 24 * time.Hour
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Hour
	}
	if c.SuspicionThreshold == 0 {
		c.SuspicionThreshold = 10
	}
	if c.AutoBlockDuration == 0 {
		c.AutoBlockDuration = time.Hour
	}
	if c.StoreTimeout == 0 {
		c.StoreTimeout = 5 * time.Second
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.FailurePolicy != PolicyOpen && c.FailurePolicy != PolicyClosed {
		return fmt.Errorf("ratelimit: failure_policy must be %q or %q, got %q", PolicyOpen, PolicyClosed, c.FailurePolicy)
	}
	if c.Retention <= 0 {
		return fmt.Errorf("ratelimit: retention must be positive")
	}
	if c.SuspicionThreshold <= 0 {
		return fmt.Errorf("ratelimit: suspicion_threshold must be positive")
	}
	return nil
}
