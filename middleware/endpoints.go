package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loomworks/authcore/observability"
	"github.com/loomworks/authcore/version"
)

// Health returns a handler that aggregates the health of the given
// checkers into a single service report. A down component turns the
// whole report down and the handler answers 503.
func Health(serviceName string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := observability.Evaluate(c.Request.Context(), serviceName, version.Short(), checkers...)

		status := http.StatusOK
		if report.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"service":    report.Service,
			"status":     report.Status,
			"version":    report.Version,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": report.Components,
		})
	}
}

// Version returns a handler that reports build information.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}
