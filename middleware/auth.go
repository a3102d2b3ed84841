package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loomworks/authcore/errors"
	"github.com/loomworks/authcore/gateway"
)

// AuthConfig tunes the bearer-token middleware.
type AuthConfig struct {
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
	// RequireSession rejects requests without an X-Session-Id header.
	// When unset a missing header skips session validation and the
	// token is checked on its own.
	RequireSession bool
}

// BearerAuth returns a Gin middleware that verifies the Authorization
// bearer token through the gateway and, when the client presents a
// session id, validates and extends the session in the same pass. The
// verified identity is stored on the Gin context under the Key*
// constants.
func BearerAuth(gw *gateway.Gateway, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, skip) {
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			AbortWithError(c, errors.EmptyToken())
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			AbortWithError(c, errors.TokenInvalid())
			return
		}

		sessionID := c.GetHeader(HeaderSessionID)
		if sessionID == "" && cfg.RequireSession {
			AbortWithError(c, errors.SessionNotFound())
			return
		}

		result, err := gw.VerifyToken(c.Request.Context(), parts[1], sessionID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if result.ShouldRefresh {
			c.Header(HeaderRefreshSuggested, "true")
		}

		c.Set(KeyUserID, result.Identity.UserID)
		c.Set(KeyOrgID, result.Identity.OrgID)
		c.Set(KeyRoleID, result.Identity.RoleID)
		c.Set(KeyIsSuperAdmin, result.Identity.IsSuperAdmin)
		if result.SessionValid && result.Session != nil {
			c.Set(KeySessionID, result.Session.ID)
		}
		c.Next()
	}
}
