package dto

import "time"

// CreateTaskRequest 创建任务，position 缺省时追加到末尾
type CreateTaskRequest struct {
	ListID      string     `json:"list_id" binding:"required,max=36"`
	Title       string     `json:"title" binding:"required,max=500"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	AssigneeID  *string    `json:"assignee_id" binding:"omitempty,max=36"`
	IsCompleted *bool      `json:"is_completed"`
	Position    *int       `json:"position" binding:"omitempty,min=0"`
}

// UpdateTaskRequest 更新任务。assignee_id 与 description 传空字符串表示清空
type UpdateTaskRequest struct {
	ListID      *string    `json:"list_id" binding:"omitempty,min=1,max=36"`
	Title       *string    `json:"title" binding:"omitempty,min=1,max=500"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	AssigneeID  *string    `json:"assignee_id" binding:"omitempty,max=36"`
	IsCompleted *bool      `json:"is_completed"`
	Position    *int       `json:"position" binding:"omitempty,min=0"`
}

// TaskQuery 任务查询
type TaskQuery struct {
	ListID string `form:"list_id" binding:"required,max=36"`
}

// TaskResponse 任务响应
type TaskResponse struct {
	ID          string  `json:"id"`
	ListID      string  `json:"list_id"`
	ProjectID   string  `json:"project_id"`
	TeamID      string  `json:"team_id"`
	OwnerID     string  `json:"owner_id"`
	AssigneeID  *string `json:"assignee_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueAt       *string `json:"due_at"`
	IsCompleted bool    `json:"is_completed"`
	CompletedAt *string `json:"completed_at"`
	Position    int     `json:"position"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}
