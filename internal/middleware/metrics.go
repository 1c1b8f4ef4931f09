package middleware

import (
	"strconv"
	"time"

	"github.com/dfryer1193/portfolio/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency per route template. Requests that matched no
// route are grouped under "unmatched" to keep label cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		metrics.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
