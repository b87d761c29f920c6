package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"taskhub/internal/model"
	"taskhub/internal/pkg/session"
	"taskhub/internal/service"
	"taskhub/pkg/constants"
	pkgErrors "taskhub/pkg/errors"
	"taskhub/pkg/responses"
)

// AuthMiddleware 校验Bearer Token并加载会话与用户
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取Authorization header
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" || !strings.HasPrefix(authHeader, constants.HeaderBearerPrefix) {
			responses.Error(c, pkgErrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, constants.HeaderBearerPrefix)
		user, sess, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			responses.Error(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Set(constants.ContextKeySession, sess)

		c.Next()
	}
}

// CurrentUser 当前登录用户，未登录时为 nil
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(constants.ContextKeyUser); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

// CurrentSession 当前会话，未登录时为 nil
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(constants.ContextKeySession); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return nil
}
