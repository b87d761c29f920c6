package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/metrics"
)

// MetricsMiddleware 按路由模板统计请求数与耗时，未匹配的路由记为 unmatched
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		pattern := c.FullPath()
		if pattern == "" {
			pattern = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, pattern, c.Writer.Status(), time.Since(start))
	}
}
