package handler

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/api/middleware"
	"taskhub/internal/dto"
	"taskhub/internal/service"
	"taskhub/pkg/responses"
)

type TeamHandler struct {
	teamService service.TeamService
}

func NewTeamHandler(teamService service.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// Create 创建团队，同时级联创建所有者成员、默认项目与默认任务列表
func (h *TeamHandler) Create(c *gin.Context) {
	var req dto.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	team, err := h.teamService.Create(c.Request.Context(), middleware.CurrentUser(c), &req)
	writeCreated(c, team, err)
}

// Get 获取团队详情
func (h *TeamHandler) Get(c *gin.Context) {
	team, err := h.teamService.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, team)
}

// List 当前用户以 active 成员身份加入的团队
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.teamService.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, teams)
}

// Update 更新团队
func (h *TeamHandler) Update(c *gin.Context) {
	var req dto.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	team, err := h.teamService.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, team)
}

// Delete 删除团队
func (h *TeamHandler) Delete(c *gin.Context) {
	if err := h.teamService.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, nil)
}
