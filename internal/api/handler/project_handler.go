package handler

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/api/middleware"
	"taskhub/internal/dto"
	"taskhub/internal/service"
	"taskhub/pkg/responses"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// Create 创建项目，同时级联创建默认任务列表
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), middleware.CurrentUser(c), &req)
	writeCreated(c, project, err)
}

// Get 获取项目详情
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projectService.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, project)
}

// List 团队下的项目
func (h *ProjectHandler) List(c *gin.Context) {
	var query dto.ProjectListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.BindError(c, err)
		return
	}

	projects, err := h.projectService.List(c.Request.Context(), middleware.CurrentUser(c), query.TeamID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, projects)
}

// Update 更新项目
func (h *ProjectHandler) Update(c *gin.Context) {
	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, project)
}

// Delete 删除项目
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, nil)
}
