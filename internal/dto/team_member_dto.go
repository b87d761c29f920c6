package dto

// InviteMemberRequest 邀请成员，按邮箱查找用户
type InviteMemberRequest struct {
	TeamID string `json:"team_id" binding:"required,max=36"`
	Email  string `json:"email" binding:"required,email"`
}

// UpdateMemberRequest 更新成员确认状态，调用方无权修改的字段会被忽略
type UpdateMemberRequest struct {
	HasUserAccepted *bool `json:"has_user_accepted"`
	HasTeamAccepted *bool `json:"has_team_accepted"`
}

// MemberListQuery team_id 与 pending 二选一
type MemberListQuery struct {
	TeamID  string `form:"team_id" binding:"required_without=Pending,max=36"`
	Pending bool   `form:"pending"`
}

// TeamMemberResponse 成员响应
type TeamMemberResponse struct {
	ID              string        `json:"id"`
	TeamID          string        `json:"team_id"`
	UserID          string        `json:"user_id"`
	HasUserAccepted bool          `json:"has_user_accepted"`
	HasTeamAccepted bool          `json:"has_team_accepted"`
	Status          string        `json:"status"`
	User            *UserResponse `json:"user,omitempty"`
	CreatedAt       string        `json:"created_at"`
	UpdatedAt       string        `json:"updated_at"`
}
