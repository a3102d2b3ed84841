package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/loomworks/authcore/errors"
	"github.com/loomworks/authcore/gateway"
)

// Context keys set by the authentication middleware.
const (
	KeyRequestID    = "request_id"
	KeyUserID       = "user_id"
	KeyOrgID        = "org_id"
	KeyRoleID       = "role_id"
	KeyIsSuperAdmin = "is_super_admin"
	KeySessionID    = "session_id"
)

// HeaderSessionID carries the session identifier issued at login.
const HeaderSessionID = "X-Session-Id"

// HeaderRefreshSuggested is set when the access token is close to
// expiry and the client should call the refresh endpoint.
const HeaderRefreshSuggested = "X-Token-Refresh-Suggested"

// RequestContext extracts the client-facing request attributes used for
// session binding and rate limiting.
func RequestContext(c *gin.Context) gateway.RequestContext {
	return gateway.RequestContext{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Platform:  c.GetHeader("X-Platform"),
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
	}
}

// AbortWithError writes an error response and stops the handler chain.
// AppErrors render with their own status and machine-readable code;
// anything else becomes an opaque 500.
func AbortWithError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{"error": appErr})
}
