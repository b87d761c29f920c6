package handler

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/api/middleware"
	"taskhub/internal/dto"
	"taskhub/internal/service"
	"taskhub/pkg/responses"
)

type TaskListHandler struct {
	service service.TaskListService
}

func NewTaskListHandler(service service.TaskListService) *TaskListHandler {
	return &TaskListHandler{service: service}
}

// Create 创建任务列表
func (h *TaskListHandler) Create(c *gin.Context) {
	var req dto.CreateTaskListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	list, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), &req)
	writeCreated(c, list, err)
}

// Get 获取任务列表详情
func (h *TaskListHandler) Get(c *gin.Context) {
	list, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, list)
}

// List 项目下的任务列表，按 position 排序
func (h *TaskListHandler) List(c *gin.Context) {
	var query dto.TaskListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.BindError(c, err)
		return
	}

	lists, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c), query.ProjectID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, lists)
}

// Update 更新标题或调整位置
func (h *TaskListHandler) Update(c *gin.Context) {
	var req dto.UpdateTaskListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	list, err := h.service.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), &req)
	writeResult(c, list, err)
}

// Delete 删除任务列表
func (h *TaskListHandler) Delete(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	writeResult(c, nil, err)
}
