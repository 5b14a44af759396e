package middleware

import (
	"strconv"
	"time"

	"blog_service/internal/observability"

	"github.com/gin-gonic/gin"
)

// PrometheusMiddleware tracks request count, latency and in-flight requests
func PrometheusMiddleware(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()

		method := c.Request.Method
		endpoint := c.FullPath() // e.g. /posts/edit/:id
		if endpoint == "" {
			// Unmatched routes share one label to keep cardinality bounded.
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}
