package middleware

import (
	"strconv"
	"time"

	"github.com/ErlanBelekov/task-tracker/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records latency and count per route template, so /tasks/1 and
// /tasks/2 share a series. Unmatched paths collapse into one label.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		duration := time.Since(start).Seconds()

		metrics.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	}
}
