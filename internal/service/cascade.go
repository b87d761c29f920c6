package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"taskhub/internal/core/event"
	"taskhub/internal/model"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/repository"
	"taskhub/pkg/constants"
)

// 级联订阅者名称，同时写入 cascade_failures.subscriber 供补偿任务识别
const (
	SubscriberDefaultTeam     = "team.default"
	SubscriberOwnerMember     = "team-member.owner"
	SubscriberDefaultProject  = "project.default"
	SubscriberDefaultTaskList = "task-list.default"
)

// Cascades 级联创建依赖的服务
type Cascades struct {
	Teams     TeamService
	Members   TeamMemberService
	Projects  ProjectService
	TaskLists TaskListService
	Failures  repository.CascadeFailureRepository
}

// RegisterCascades 注册默认实体的级联创建：
// user.created -> 默认团队；team.created -> 所有者成员、默认项目；project.created -> 默认任务列表
func RegisterCascades(bus *event.Bus, c Cascades) {
	event.On(bus, SubscriberDefaultTeam, func(ctx context.Context, e event.UserCreated) error {
		_, err := c.Teams.Provision(ctx, e.User.ID, defaultTeamTitle(e.User))
		return err
	})
	event.On(bus, SubscriberOwnerMember, func(ctx context.Context, e event.TeamCreated) error {
		_, err := c.Members.EnsureMember(ctx, e.Team.ID, e.Team.OwnerID, true, true)
		return err
	})
	event.On(bus, SubscriberDefaultProject, func(ctx context.Context, e event.TeamCreated) error {
		_, err := c.Projects.Provision(ctx, e.Team.ID, e.Team.OwnerID, constants.DefaultProjectTitle)
		return err
	})
	event.On(bus, SubscriberDefaultTaskList, func(ctx context.Context, e event.ProjectCreated) error {
		_, err := c.TaskLists.Provision(ctx, e.Project, e.Project.OwnerID, constants.DefaultTaskListTitle, nil)
		return err
	})

	if c.Failures != nil {
		bus.OnFailure(failureRecorder(c.Failures))
	}
}

func defaultTeamTitle(user *model.User) string {
	return fmt.Sprintf(constants.DefaultTeamTitleFormat, user.DisplayName())
}

// failureRecorder 记录失败的级联并上报 Sentry，主实体已提交，由补偿任务修复
func failureRecorder(repo repository.CascadeFailureRepository) event.FailureHook {
	return func(ctx context.Context, e event.Event, subscriber string, err error) {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("event", string(e.Name()))
			scope.SetTag("subscriber", subscriber)
			scope.SetTag("subject_id", e.Subject())
			sentry.CaptureException(err)
		})

		payload, marshalErr := json.Marshal(e)
		if marshalErr != nil {
			logger.Error("序列化级联事件失败", zap.String("event", string(e.Name())), zap.Error(marshalErr))
			payload = []byte("{}")
		}

		failure := &model.CascadeFailure{
			Event:      string(e.Name()),
			Subscriber: subscriber,
			SubjectID:  e.Subject(),
			Payload:    datatypes.JSON(payload),
			Error:      err.Error(),
		}
		if recordErr := repo.Create(context.WithoutCancel(ctx), failure); recordErr != nil {
			logger.Error("记录级联失败失败",
				zap.String("event", failure.Event),
				zap.String("subscriber", subscriber),
				zap.String("subject_id", failure.SubjectID),
				zap.Error(recordErr),
			)
		}
	}
}
