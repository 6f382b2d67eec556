package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-roster-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records duration and status of every routed request. Requests that match no
// route share one label so unknown paths cannot grow the series count.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if _, ok := skipped[path]; ok {
			return
		}
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
