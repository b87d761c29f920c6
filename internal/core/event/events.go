package event

import "taskhub/internal/model"

// Name 事件名称
type Name string

const (
	NameUserCreated       Name = "user.created"
	NameTeamCreated       Name = "team.created"
	NameTeamMemberCreated Name = "team-member.created"
	NameTeamMemberUpdated Name = "team-member.updated"
	NameTeamMemberDeleted Name = "team-member.deleted"
	NameProjectCreated    Name = "project.created"
	NameTaskListCreated   Name = "task-list.created"
	NameTaskListUpdated   Name = "task-list.updated"
	NameTaskListDeleted   Name = "task-list.deleted"
	NameTaskCreated       Name = "task.created"
	NameTaskUpdated       Name = "task.updated"
	NameTaskDeleted       Name = "task.deleted"
)

// Event 总线上传递的领域事件。Subject 为事件主体实体的 ID。
type Event interface {
	Name() Name
	Subject() string
}

type UserCreated struct {
	User *model.User `json:"user"`
}

func (UserCreated) Name() Name { return NameUserCreated }
func (e UserCreated) Subject() string { return e.User.ID }

type TeamCreated struct {
	Team *model.Team `json:"team"`
}

func (TeamCreated) Name() Name { return NameTeamCreated }
func (e TeamCreated) Subject() string { return e.Team.ID }

type TeamMemberCreated struct {
	Member *model.TeamMember `json:"member"`
}

func (TeamMemberCreated) Name() Name { return NameTeamMemberCreated }
func (e TeamMemberCreated) Subject() string { return e.Member.ID }

type TeamMemberUpdated struct {
	Member *model.TeamMember `json:"member"`
}

func (TeamMemberUpdated) Name() Name { return NameTeamMemberUpdated }
func (e TeamMemberUpdated) Subject() string { return e.Member.ID }

type TeamMemberDeleted struct {
	Member *model.TeamMember `json:"member"`
}

func (TeamMemberDeleted) Name() Name { return NameTeamMemberDeleted }
func (e TeamMemberDeleted) Subject() string { return e.Member.ID }

type ProjectCreated struct {
	Project *model.Project `json:"project"`
}

func (ProjectCreated) Name() Name { return NameProjectCreated }
func (e ProjectCreated) Subject() string { return e.Project.ID }

type TaskListCreated struct {
	TaskList *model.TaskList `json:"task_list"`
}

func (TaskListCreated) Name() Name { return NameTaskListCreated }
func (e TaskListCreated) Subject() string { return e.TaskList.ID }

type TaskListUpdated struct {
	TaskList *model.TaskList `json:"task_list"`
}

func (TaskListUpdated) Name() Name { return NameTaskListUpdated }
func (e TaskListUpdated) Subject() string { return e.TaskList.ID }

type TaskListDeleted struct {
	TaskList *model.TaskList `json:"task_list"`
}

func (TaskListDeleted) Name() Name { return NameTaskListDeleted }
func (e TaskListDeleted) Subject() string { return e.TaskList.ID }

type TaskCreated struct {
	Task *model.Task `json:"task"`
}

func (TaskCreated) Name() Name { return NameTaskCreated }
func (e TaskCreated) Subject() string { return e.Task.ID }

type TaskUpdated struct {
	Task *model.Task `json:"task"`
}

func (TaskUpdated) Name() Name { return NameTaskUpdated }
func (e TaskUpdated) Subject() string { return e.Task.ID }

type TaskDeleted struct {
	Task *model.Task `json:"task"`
}

func (TaskDeleted) Name() Name { return NameTaskDeleted }
func (e TaskDeleted) Subject() string { return e.Task.ID }
