package handler

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/api/middleware"
	"taskhub/internal/dto"
	"taskhub/internal/service"
	"taskhub/pkg/constants"
	pkgErrors "taskhub/pkg/errors"
	"taskhub/pkg/responses"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// CreateSession 身份网关提交外部身份并换取会话Token
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	resp, err := h.authService.CreateSession(c.Request.Context(), c.GetHeader(constants.HeaderGatewaySecret), &req)
	writeCreated(c, resp, err)
}

// SignOut 注销当前会话
func (h *AuthHandler) SignOut(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		responses.Error(c, pkgErrors.ErrUnauthenticated)
		return
	}

	if err := h.authService.SignOut(c.Request.Context(), sess.ID); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, nil)
}
