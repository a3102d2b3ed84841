package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/loomworks/authcore/gateway"
)

// RateLimit returns a Gin middleware that enforces the named rate limit
// class through the gateway. Authenticated requests are limited per
// user; anonymous requests fall back to the client fingerprint. Panics
// on an unknown class name so misconfiguration fails at startup.
func RateLimit(gw *gateway.Gateway, className string) gin.HandlerFunc {
	limit, err := gw.RateLimitMiddleware(className)
	if err != nil {
		panic(fmt.Sprintf("middleware: %v", err))
	}

	return func(c *gin.Context) {
		decision, err := limit(c.Request.Context(), RequestContext(c), c.GetString(KeyUserID))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if decision.Remaining >= 0 {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}
		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
			AbortWithError(c, decision.Err())
			return
		}
		c.Next()
	}
}
