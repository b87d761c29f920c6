package model

import "time"

const ProjectTableName = "projects"
const TaskListTableName = "task_lists"
const TaskTableName = "tasks"

// Project 项目
type Project struct {
	BaseModel
	TeamID  string `gorm:"size:36;not null;index" json:"team_id"`
	OwnerID string `gorm:"size:36;not null;index" json:"owner_id"`
	Title   string `gorm:"size:200;not null" json:"title"`
}

func (Project) TableName() string {
	return ProjectTableName
}

// TaskList 任务列表，position 在同一项目内稠密
type TaskList struct {
	BaseModel
	ProjectID string `gorm:"size:36;not null;index:idx_task_list_scope" json:"project_id"`
	TeamID    string `gorm:"size:36;not null;index" json:"team_id"`
	OwnerID   string `gorm:"size:36;not null" json:"owner_id"`
	Title     string `gorm:"size:200;not null" json:"title"`
	Position  int    `gorm:"not null;default:0;index:idx_task_list_scope" json:"position"`
}

func (TaskList) TableName() string {
	return TaskListTableName
}

// Task 任务，position 在同一任务列表内稠密
type Task struct {
	BaseModel
	ListID      string     `gorm:"size:36;not null;index:idx_task_scope" json:"list_id"`
	ProjectID   string     `gorm:"size:36;not null;index" json:"project_id"`
	TeamID      string     `gorm:"size:36;not null;index" json:"team_id"`
	OwnerID     string     `gorm:"size:36;not null" json:"owner_id"`
	AssigneeID  *string    `gorm:"size:36;index" json:"assignee_id,omitempty"`
	Title       string     `gorm:"size:500;not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Position    int        `gorm:"not null;default:0;index:idx_task_scope" json:"position"`
}

func (Task) TableName() string {
	return TaskTableName
}

// SetCompleted 维护 is_completed 与 completed_at 的一致性，true->true 保留原完成时间
func (t *Task) SetCompleted(completed bool, now time.Time) {
	switch {
	case completed && !t.IsCompleted:
		t.IsCompleted = true
		t.CompletedAt = &now
	case !completed:
		t.IsCompleted = false
		t.CompletedAt = nil
	}
}
