package session

import (
	"time"
)

// Status is a session lifecycle state. Active is the only non-terminal
// state; there is no transition out of a terminal state.
type Status string

const (
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusTerminated Status = "terminated"
	StatusKickedOut  Status = "kicked_out"
)

// Termination reasons recorded on a session when it leaves the active
// state.
const (
	ReasonConcurrentLimit = "concurrent_limit_exceeded"
	ReasonLogout          = "logout"
	ReasonLogoutAll       = "logout_all"
	ReasonPasswordChanged = "password_changed"
	ReasonExpired         = "session_timeout"
)

// Suspicious-activity reasons reported by DetectSuspiciousActivity.
const (
	ReasonHighFrequencyLogin = "high_frequency_login"
	ReasonMultipleIPs        = "multiple_ip_addresses"
	ReasonMultipleDevices    = "multiple_devices"
)

// ClientInfo identifies the device a session was opened from.
type ClientInfo struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Platform  string `json:"platform,omitempty"`
}

// SameDevice reports whether two clients carry the exact same user agent
// and IP. A same-device re-login extends the existing session instead of
// counting against the concurrency cap.
func (c ClientInfo) SameDevice(other ClientInfo) bool {
	return c.UserAgent == other.UserAgent && c.IP == other.IP
}

// Session is one authenticated login. IDs are opaque 32-byte random
// strings, hex encoded.
type Session struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Client            ClientInfo `json:"client"`
	AccessTokenRef    string     `json:"access_token_ref,omitempty"`
	Status            Status     `json:"status"`
	LoginCount        int        `json:"login_count"`
	CreatedAt         time.Time  `json:"created_at"`
	LastActiveAt      time.Time  `json:"last_active_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	TerminatedAt      time.Time  `json:"terminated_at,omitempty"`
	TerminationReason string     `json:"termination_reason,omitempty"`
}

func (s Session) Field(name string) (any, bool) {
	switch name {
	case "id":
		return s.ID, true
	case "user_id":
		return s.UserID, true
	case "status":
		return string(s.Status), true
	case "ip":
		return s.Client.IP, true
	case "user_agent":
		return s.Client.UserAgent, true
	case "created_at":
		return s.CreatedAt, true
	case "last_active_at":
		return s.LastActiveAt, true
	case "expires_at":
		return s.ExpiresAt, true
	default:
		return nil, false
	}
}

// LoginRecord is one login attempt, kept for suspicious-activity
// detection over a trailing window.
type LoginRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

func (r LoginRecord) Field(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "user_id":
		return r.UserID, true
	case "ip":
		return r.IP, true
	case "user_agent":
		return r.UserAgent, true
	case "success":
		return r.Success, true
	case "created_at":
		return r.CreatedAt, true
	default:
		return nil, false
	}
}

// SuspicionReport is the outcome of a suspicious-activity check. Reason
// holds the first matching signal when Suspicious is true.
type SuspicionReport struct {
	Suspicious     bool   `json:"suspicious"`
	Reason         string `json:"reason,omitempty"`
	LoginCount     int    `json:"login_count"`
	DistinctIPs    int    `json:"distinct_ips"`
	DistinctAgents int    `json:"distinct_agents"`
}
