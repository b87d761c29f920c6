package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/pkg/logger"
	pkgErrors "taskhub/pkg/errors"
	"taskhub/pkg/responses"
)

// RecoveryMiddleware 捕获 panic，上报 Sentry 后返回 500
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetTag("path", c.FullPath())
				hub.Recover(r)

				logger.Error("请求处理发生panic",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				responses.Error(c, pkgErrors.ErrInternalError.WithCause(fmt.Errorf("panic: %v", r)))
				c.Abort()
			}
		}()
		c.Next()
	}
}
