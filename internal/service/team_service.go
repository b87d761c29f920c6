package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"taskhub/internal/core/event"
	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/repository"
	pkgErrors "taskhub/pkg/errors"
)

type TeamService interface {
	Create(ctx context.Context, actor *model.User, req *dto.CreateTeamRequest) (*dto.TeamResponse, error)
	Get(ctx context.Context, actor *model.User, id string) (*dto.TeamResponse, error)
	List(ctx context.Context, actor *model.User) ([]*dto.TeamResponse, error)
	Update(ctx context.Context, actor *model.User, id string, req *dto.UpdateTeamRequest) (*dto.TeamResponse, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	// Provision 创建团队并发布 team.created，接口调用与级联共用
	Provision(ctx context.Context, ownerID, title string) (*model.Team, error)
}

type teamService struct {
	db          *gorm.DB
	repo        repository.TeamRepository
	memberRepo  repository.TeamMemberRepository
	projectRepo repository.ProjectRepository
	authz       AuthorizationService
	bus         *event.Bus
}

func NewTeamService(
	db *gorm.DB,
	repo repository.TeamRepository,
	memberRepo repository.TeamMemberRepository,
	projectRepo repository.ProjectRepository,
	authz AuthorizationService,
	bus *event.Bus,
) TeamService {
	return &teamService{
		db:          db,
		repo:        repo,
		memberRepo:  memberRepo,
		projectRepo: projectRepo,
		authz:       authz,
		bus:         bus,
	}
}

func (s *teamService) Create(ctx context.Context, actor *model.User, req *dto.CreateTeamRequest) (*dto.TeamResponse, error) {
	if err := s.authz.Authorize(ctx, actor, ActionCreate, &model.Team{}); err != nil {
		return nil, err
	}

	team, err := s.Provision(ctx, actor.ID, req.Title)
	if team == nil {
		return nil, err
	}
	return s.toResponse(team), cascadeResult(err)
}

func (s *teamService) Provision(ctx context.Context, ownerID, title string) (*model.Team, error) {
	team := &model.Team{
		OwnerID: ownerID,
		Title:   title,
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, err
	}
	return team, s.bus.Publish(ctx, event.TeamCreated{Team: team})
}

func (s *teamService) Get(ctx context.Context, actor *model.User, id string) (*dto.TeamResponse, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionRead, team); err != nil {
		return nil, err
	}
	return s.toResponse(team), nil
}

func (s *teamService) List(ctx context.Context, actor *model.User) ([]*dto.TeamResponse, error) {
	if actor == nil {
		return nil, pkgErrors.ErrUnauthenticated
	}
	teams, err := s.repo.ListByActiveMember(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.TeamResponse, len(teams))
	for i, team := range teams {
		responses[i] = s.toResponse(team)
	}
	return responses, nil
}

func (s *teamService) Update(ctx context.Context, actor *model.User, id string, req *dto.UpdateTeamRequest) (*dto.TeamResponse, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionUpdate, team); err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != team.Title {
		team.Title = *req.Title
		if err := s.repo.Update(ctx, team); err != nil {
			return nil, err
		}
	}
	return s.toResponse(team), nil
}

// Delete 依次检查：唯一团队 -> 仍有项目 -> 仍有其他成员，通过后在同一事务中删除成员、项目与团队
func (s *teamService) Delete(ctx context.Context, actor *model.User, id string) error {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, ActionDelete, team); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teamRepo := s.repo.WithTx(tx)
		if _, err := teamRepo.LockByID(ctx, team.ID); err != nil {
			return err
		}

		owned, err := teamRepo.CountByOwner(ctx, team.OwnerID)
		if err != nil {
			return err
		}
		if owned <= 1 {
			return pkgErrors.ErrTeamLastTeam
		}

		projects, err := s.projectRepo.WithTx(tx).CountByTeam(ctx, team.ID)
		if err != nil {
			return err
		}
		if projects > 0 {
			return pkgErrors.ErrTeamHasProjects
		}

		memberRepo := s.memberRepo.WithTx(tx)
		others, err := memberRepo.CountOthers(ctx, team.ID, team.OwnerID)
		if err != nil {
			return err
		}
		if others > 0 {
			return pkgErrors.ErrTeamHasOtherMembers
		}

		if err := memberRepo.DeleteByTeam(ctx, team.ID); err != nil {
			return err
		}
		if err := s.projectRepo.WithTx(tx).DeleteByTeam(ctx, team.ID); err != nil {
			return err
		}
		if err := teamRepo.Delete(ctx, team.ID); err != nil {
			return err
		}

		logger.Info("团队已删除", zap.String("team_id", team.ID), zap.String("operator", actor.ID))
		return nil
	})
}

func (s *teamService) toResponse(team *model.Team) *dto.TeamResponse {
	return &dto.TeamResponse{
		ID:        team.ID,
		OwnerID:   team.OwnerID,
		Title:     team.Title,
		CreatedAt: formatTime(team.CreatedAt),
		UpdatedAt: formatTime(team.UpdatedAt),
	}
}
