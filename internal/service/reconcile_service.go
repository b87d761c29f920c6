package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"taskhub/internal/core/event"
	"taskhub/internal/metrics"
	"taskhub/internal/model"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/repository"
	"taskhub/pkg/constants"
	pkgErrors "taskhub/pkg/errors"
)

// reconcileBatchSize 单次补偿处理的最大记录数
const reconcileBatchSize = 100

// ReconcileReport 一次补偿的结果
type ReconcileReport struct {
	Replayed int `json:"replayed"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Teams    int `json:"teams"`
	Members  int `json:"members"`
}

// ReconcileService 修复级联失败导致的缺失默认实体
type ReconcileService interface {
	Run(ctx context.Context) (*ReconcileReport, error)
}

type reconcileService struct {
	failures    repository.CascadeFailureRepository
	userRepo    repository.UserRepository
	teamRepo    repository.TeamRepository
	projectRepo repository.ProjectRepository
	listRepo    repository.TaskListRepository
	cascades    Cascades
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewReconcileService(
	failures repository.CascadeFailureRepository,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	projectRepo repository.ProjectRepository,
	listRepo repository.TaskListRepository,
	cascades Cascades,
	m *metrics.Metrics,
) ReconcileService {
	return &reconcileService{
		failures:    failures,
		userRepo:    userRepo,
		teamRepo:    teamRepo,
		projectRepo: projectRepo,
		listRepo:    listRepo,
		cascades:    cascades,
		metrics:     m,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run 先重放未处理的失败记录，再扫描缺少自有团队的用户和缺少所有者成员的团队
func (s *reconcileService) Run(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	if err := s.replayFailures(ctx, report); err != nil {
		s.metrics.ReconcileRun("error")
		return report, err
	}
	if err := s.sweepUsers(ctx, report); err != nil {
		s.metrics.ReconcileRun("error")
		return report, err
	}
	if err := s.sweepTeams(ctx, report); err != nil {
		s.metrics.ReconcileRun("error")
		return report, err
	}

	s.metrics.ReconcileRun("ok")
	s.metrics.ReconcileRepaired("team", report.Teams)
	s.metrics.ReconcileRepaired("member", report.Members)
	s.metrics.ReconcileRepaired("replay", report.Replayed)

	logger.Info("级联补偿完成",
		zap.Int("replayed", report.Replayed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("teams", report.Teams),
		zap.Int("members", report.Members),
	)
	return report, nil
}

func (s *reconcileService) replayFailures(ctx context.Context, report *ReconcileReport) error {
	open, err := s.failures.ListOpen(ctx, reconcileBatchSize)
	if err != nil {
		return err
	}

	var resolved []string
	for _, f := range open {
		repaired, err := s.replay(ctx, f)
		if err != nil {
			report.Failed++
			logger.Warn("重放级联失败记录失败",
				zap.String("failure_id", f.ID),
				zap.String("subscriber", f.Subscriber),
				zap.Error(err),
			)
			continue
		}
		if repaired {
			report.Replayed++
		} else {
			report.Skipped++
		}
		resolved = append(resolved, f.ID)
	}

	return s.failures.Resolve(ctx, lo.Uniq(resolved), s.now())
}

// replay 按订阅者重新执行级联。实体已被删除或默认实体已存在时不再创建，返回 false
func (s *reconcileService) replay(ctx context.Context, f *model.CascadeFailure) (bool, error) {
	switch f.Subscriber {
	case SubscriberDefaultTeam:
		var e event.UserCreated
		if err := decodePayload(f, &e); err != nil {
			return false, err
		}
		if e.User == nil {
			return false, nil
		}
		user, err := s.userRepo.FindByID(ctx, e.User.ID)
		if err != nil {
			return gone(err)
		}
		owned, err := s.teamRepo.CountByOwner(ctx, user.ID)
		if err != nil || owned > 0 {
			return false, err
		}
		_, err = s.cascades.Teams.Provision(ctx, user.ID, defaultTeamTitle(user))
		return true, ignoreCascade(err)

	case SubscriberOwnerMember:
		team, err := s.decodeTeam(ctx, f)
		if err != nil {
			return gone(err)
		}
		_, err = s.cascades.Members.EnsureMember(ctx, team.ID, team.OwnerID, true, true)
		return true, ignoreCascade(err)

	case SubscriberDefaultProject:
		team, err := s.decodeTeam(ctx, f)
		if err != nil {
			return gone(err)
		}
		projects, err := s.projectRepo.CountByTeam(ctx, team.ID)
		if err != nil || projects > 0 {
			return false, err
		}
		_, err = s.cascades.Projects.Provision(ctx, team.ID, team.OwnerID, constants.DefaultProjectTitle)
		return true, ignoreCascade(err)

	case SubscriberDefaultTaskList:
		var e event.ProjectCreated
		if err := decodePayload(f, &e); err != nil {
			return false, err
		}
		if e.Project == nil {
			return false, nil
		}
		project, err := s.projectRepo.FindByID(ctx, e.Project.ID)
		if err != nil {
			return gone(err)
		}
		lists, err := s.listRepo.CountByProject(ctx, project.ID)
		if err != nil || lists > 0 {
			return false, err
		}
		_, err = s.cascades.TaskLists.Provision(ctx, project, project.OwnerID, constants.DefaultTaskListTitle, nil)
		return true, ignoreCascade(err)
	}

	// 未知订阅者无法重放，直接标记为已处理
	logger.Warn("未知的级联订阅者", zap.String("subscriber", f.Subscriber), zap.String("failure_id", f.ID))
	return false, nil
}

func (s *reconcileService) decodeTeam(ctx context.Context, f *model.CascadeFailure) (*model.Team, error) {
	var e event.TeamCreated
	if err := decodePayload(f, &e); err != nil {
		return nil, err
	}
	if e.Team == nil {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return s.teamRepo.FindByID(ctx, e.Team.ID)
}

func (s *reconcileService) sweepUsers(ctx context.Context, report *ReconcileReport) error {
	users, err := s.userRepo.ListWithoutOwnedTeam(ctx, reconcileBatchSize)
	if err != nil {
		return err
	}
	for _, user := range users {
		if _, err := s.cascades.Teams.Provision(ctx, user.ID, defaultTeamTitle(user)); ignoreCascade(err) != nil {
			return err
		}
		report.Teams++
	}
	return nil
}

func (s *reconcileService) sweepTeams(ctx context.Context, report *ReconcileReport) error {
	teams, err := s.teamRepo.ListWithoutOwnerMember(ctx, reconcileBatchSize)
	if err != nil {
		return err
	}
	for _, team := range teams {
		if _, err := s.cascades.Members.EnsureMember(ctx, team.ID, team.OwnerID, true, true); ignoreCascade(err) != nil {
			return err
		}
		report.Members++
	}
	return nil
}

func decodePayload(f *model.CascadeFailure, v interface{}) error {
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", f.Event, err)
	}
	return nil
}

// ignoreCascade 嵌套级联的失败已单独记录，不影响本次修复结果
func ignoreCascade(err error) error {
	if event.IsCascadeError(err) {
		return nil
	}
	return err
}

// gone 记录对应的实体已被删除时视为无需修复
func gone(err error) (bool, error) {
	if errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}
