package dto

// CreateTeamRequest 创建团队请求
type CreateTeamRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

// UpdateTeamRequest 更新团队请求
type UpdateTeamRequest struct {
	Title *string `json:"title" binding:"omitempty,min=1,max=200"`
}

// TeamResponse 团队响应
type TeamResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
