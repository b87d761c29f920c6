package handler

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/api/middleware"
	"taskhub/internal/service"
	"taskhub/pkg/responses"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Get 获取用户信息，id 为 me 时返回当前用户
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, user)
}
