package dto

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	TeamID string `json:"team_id" binding:"required,max=36"`
	Title  string `json:"title" binding:"required,max=200"`
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Title *string `json:"title" binding:"omitempty,min=1,max=200"`
}

// ProjectListQuery 项目列表
type ProjectListQuery struct {
	TeamID string `form:"team_id" binding:"required,max=36"`
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
