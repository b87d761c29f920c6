package dto

// CreateTaskListRequest 创建任务列表，position 缺省时追加到末尾
type CreateTaskListRequest struct {
	ProjectID string `json:"project_id" binding:"required,max=36"`
	Title     string `json:"title" binding:"required,max=200"`
	Position  *int   `json:"position" binding:"omitempty,min=0"`
}

// UpdateTaskListRequest 更新任务列表
type UpdateTaskListRequest struct {
	Title    *string `json:"title" binding:"omitempty,min=1,max=200"`
	Position *int    `json:"position" binding:"omitempty,min=0"`
}

// TaskListQuery 任务列表查询
type TaskListQuery struct {
	ProjectID string `form:"project_id" binding:"required,max=36"`
}

// TaskListResponse 任务列表响应
type TaskListResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	TeamID    string `json:"team_id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
