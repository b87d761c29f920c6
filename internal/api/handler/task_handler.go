package handler

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/api/middleware"
	"taskhub/internal/dto"
	"taskhub/internal/service"
	"taskhub/pkg/responses"
)

type TaskHandler struct {
	service service.TaskService
}

func NewTaskHandler(service service.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create 创建任务
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	task, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), &req)
	writeCreated(c, task, err)
}

// Get 获取任务详情
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, task)
}

// List 任务列表下的任务，按 position 排序
func (h *TaskHandler) List(c *gin.Context) {
	var query dto.TaskQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.BindError(c, err)
		return
	}

	tasks, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c), query.ListID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, tasks)
}

// Update 更新任务，可调整位置或移动到同一项目的其他任务列表
func (h *TaskHandler) Update(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	task, err := h.service.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), &req)
	writeResult(c, task, err)
}

// Delete 删除任务
func (h *TaskHandler) Delete(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	writeResult(c, nil, err)
}
