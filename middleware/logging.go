package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loomworks/authcore/logger"
)

// RequestLogger returns a Gin middleware that logs every request with
// method, path, status, and latency. Health and metrics paths are
// skipped to keep probe traffic out of the logs.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProbePath(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        path,
			"status":      status,
			"duration_ms": latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
		}
		if id := c.GetString(KeyRequestID); id != "" {
			fields["request_id"] = id
		}
		if latency > 500*time.Millisecond {
			fields["slow"] = true
		}

		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Debug("request completed", fields)
		}
	}
}

func isProbePath(path string) bool {
	for _, p := range []string{"/health", "/alive", "/ready", "/metrics", "/version"} {
		if path == p || path == "/api"+p {
			return true
		}
	}
	return false
}
