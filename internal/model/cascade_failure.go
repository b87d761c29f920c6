package model

import (
	"time"

	"gorm.io/datatypes"
)

const CascadeFailureTableName = "cascade_failures"

// CascadeFailure 级联订阅者执行失败记录，供定时任务补偿
type CascadeFailure struct {
	BaseModel
	Event      string         `gorm:"size:64;not null;index" json:"event"`
	Subscriber string         `gorm:"size:64;not null" json:"subscriber"`
	SubjectID  string         `gorm:"size:36;not null;index" json:"subject_id"`
	Payload    datatypes.JSON `json:"payload"`
	Error      string         `gorm:"type:text" json:"error"`
	ResolvedAt *time.Time     `gorm:"index" json:"resolved_at,omitempty"`
}

func (CascadeFailure) TableName() string {
	return CascadeFailureTableName
}
