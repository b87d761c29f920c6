package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/pkg/logger"
)

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		cost := time.Since(start)

		fields := []zap.Field{
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
		}
		if user := CurrentUser(c); user != nil {
			fields = append(fields, zap.String("user_id", user.ID))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("errors", errs))
		}

		logger.Info(fmt.Sprintf("%s %s %s %v %.3fs %v", c.Request.Proto, c.Request.Method, path, c.Writer.Status(), cost.Seconds(), query), fields...)
	}
}
