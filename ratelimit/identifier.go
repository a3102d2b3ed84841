package ratelimit

import (
	"strings"

	"github.com/loomworks/authcore/password"
)

const (
	userPrefix   = "user:"
	clientPrefix = "client:"
)

// UserIdentifier derives the limit identifier for an authenticated request.
func UserIdentifier(userID string) string {
	return userPrefix + userID
}

// ClientIdentifier derives the limit identifier for an anonymous request
// from its IP address and user agent.
func ClientIdentifier(ip, userAgent string) string {
	return clientPrefix + password.HashSHA256(ip+userAgent)
}

// IsClientScoped reports whether the identifier was derived from client
// network attributes rather than a user id. Violations on client-scoped
// identifiers feed the IP reputation tracker.
func IsClientScoped(identifier string) bool {
	return strings.HasPrefix(identifier, clientPrefix)
}
