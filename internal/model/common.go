package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseModel struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// BeforeCreate 未指定主键时生成 UUIDv4
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// All 参与迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Team{},
		&TeamMember{},
		&Project{},
		&TaskList{},
		&Task{},
		&CascadeFailure{},
	}
}
