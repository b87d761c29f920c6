package model

import "taskhub/pkg/constants"

const UserTableName = "users"

// User 用户，由外部身份提供方首次登录时创建
type User struct {
	BaseModel
	Role       string  `gorm:"size:20;not null;default:user" json:"role"`
	Provider   string  `gorm:"size:20;not null;uniqueIndex:idx_user_identity" json:"provider"`
	ExternalID string  `gorm:"size:191;not null;uniqueIndex:idx_user_identity" json:"-"`
	Username   string  `gorm:"size:100;not null" json:"username"`
	Email      string  `gorm:"size:191;index" json:"email"`
	FullName   string  `gorm:"size:191" json:"full_name"`
	AvatarURL  *string `gorm:"size:500" json:"avatar_url,omitempty"`
	IsBlocked  bool    `gorm:"not null;default:false" json:"is_blocked"`
}

func (User) TableName() string {
	return UserTableName
}

// DisplayName 优先使用全名
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// IsAdmin admin 与 superadmin 均可查看其他用户
func (u *User) IsAdmin() bool {
	return u.Role == constants.RoleAdmin || u.Role == constants.RoleSuperAdmin
}
