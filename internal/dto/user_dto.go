package dto

// SignInRequest 身份网关提交的已验证外部身份
type SignInRequest struct {
	Provider   string  `json:"provider" binding:"required,max=20"`
	ExternalID string  `json:"external_id" binding:"required,max=128"`
	Username   string  `json:"username" binding:"required,max=100"`
	Email      string  `json:"email" binding:"omitempty,email,max=255"`
	FullName   string  `json:"full_name" binding:"omitempty,max=200"`
	AvatarURL  *string `json:"avatar_url" binding:"omitempty,url"`
}

// UserResponse 用户信息
type UserResponse struct {
	ID        string  `json:"id"`
	Role      string  `json:"role"`
	Provider  string  `json:"provider"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	IsBlocked bool    `json:"is_blocked"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// SessionResponse 会话创建结果
type SessionResponse struct {
	Token     string        `json:"token"`
	ExpiresAt string        `json:"expires_at"`
	User      *UserResponse `json:"user"`
}
