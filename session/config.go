package session

import (
	"fmt"
	"time"
)

// Failure policy values for store errors during session validation.
const (
	PolicyOpen   = "open"
	PolicyClosed = "closed"
)

// Config holds session-manager settings.
type Config struct {
	// Timeout is the idle lifetime of a session. Every validated request
	// extends the session by this much.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
	// MaxConcurrent caps active sessions per user.
	MaxConcurrent int `mapstructure:"max_concurrent" json:"max_concurrent"`
	// SuspiciousWindow is the trailing interval inspected by
	// DetectSuspiciousActivity.
	SuspiciousWindow time.Duration `mapstructure:"suspicious_window" json:"suspicious_window"`
	// SuspiciousLoginThreshold flags high_frequency_login at this many
	// login records inside the window.
	SuspiciousLoginThreshold int `mapstructure:"suspicious_login_threshold" json:"suspicious_login_threshold"`
	// SuspiciousMaxIPs flags multiple_ip_addresses above this many
	// distinct IPs inside the window.
	SuspiciousMaxIPs int `mapstructure:"suspicious_max_ips" json:"suspicious_max_ips"`
	// SuspiciousMaxAgents flags multiple_devices above this many distinct
	// user agents inside the window.
	SuspiciousMaxAgents int `mapstructure:"suspicious_max_agents" json:"suspicious_max_agents"`
	// FailurePolicy decides what a store failure during validation means:
	// "closed" denies the request, "open" admits it unverified.
	FailurePolicy string `mapstructure:"failure_policy" json:"failure_policy"`
	// LoginRecordRetention bounds how long login records are kept.
	LoginRecordRetention time.Duration `mapstructure:"login_record_retention" json:"login_record_retention"`
	// SweepInterval is how often the expiry sweep runs.
	SweepInterval time.Duration `mapstructure:"sweep_interval" json:"sweep_interval"`
	// StoreTimeout bounds the store calls made by a sweep iteration.
	StoreTimeout time.Duration `mapstructure:"store_timeout" json:"store_timeout"`
}

// ApplyDefaults fills in zero values with production defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 24 * time.Hour
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 3
	}
	if c.SuspiciousWindow == 0 {
		c.SuspiciousWindow = 15 * time.Minute
	}
	if c.SuspiciousLoginThreshold == 0 {
		c.SuspiciousLoginThreshold = 5
	}
	if c.SuspiciousMaxIPs == 0 {
		c.SuspiciousMaxIPs = 3
	}
	if c.SuspiciousMaxAgents == 0 {
		c.SuspiciousMaxAgents = 2
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = PolicyClosed
	}
	if c.LoginRecordRetention == 0 {
		c.LoginRecordRetention = 24 * time.Hour
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Hour
	}
	if c.StoreTimeout == 0 {
		c.StoreTimeout = 5 * time.Second
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("session: timeout must be positive")
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("session: max_concurrent must be positive")
	}
	if c.FailurePolicy != PolicyOpen && c.FailurePolicy != PolicyClosed {
		return fmt.Errorf("session: failure_policy must be %q or %q, got %q", PolicyOpen, PolicyClosed, c.FailurePolicy)
	}
	return nil
}
