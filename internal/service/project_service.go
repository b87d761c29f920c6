package service

import (
	"context"

	"gorm.io/gorm"

	"taskhub/internal/core/event"
	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/internal/repository"
	pkgErrors "taskhub/pkg/errors"
)

type ProjectService interface {
	Create(ctx context.Context, actor *model.User, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	Get(ctx context.Context, actor *model.User, id string) (*dto.ProjectResponse, error)
	List(ctx context.Context, actor *model.User, teamID string) ([]*dto.ProjectResponse, error)
	Update(ctx context.Context, actor *model.User, id string, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	// Provision 创建项目并发布 project.created，接口调用与级联共用
	Provision(ctx context.Context, teamID, ownerID, title string) (*model.Project, error)
}

type projectService struct {
	db       *gorm.DB
	repo     repository.ProjectRepository
	teamRepo repository.TeamRepository
	listRepo repository.TaskListRepository
	authz    AuthorizationService
	bus      *event.Bus
}

func NewProjectService(
	db *gorm.DB,
	repo repository.ProjectRepository,
	teamRepo repository.TeamRepository,
	listRepo repository.TaskListRepository,
	authz AuthorizationService,
	bus *event.Bus,
) ProjectService {
	return &projectService{
		db:       db,
		repo:     repo,
		teamRepo: teamRepo,
		listRepo: listRepo,
		authz:    authz,
		bus:      bus,
	}
}

func (s *projectService) Create(ctx context.Context, actor *model.User, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	if err := s.authz.Authorize(ctx, actor, ActionCreate, &model.Project{TeamID: req.TeamID}); err != nil {
		return nil, err
	}

	project, err := s.Provision(ctx, req.TeamID, actor.ID, req.Title)
	if project == nil {
		return nil, err
	}
	return s.toResponse(project), cascadeResult(err)
}

func (s *projectService) Provision(ctx context.Context, teamID, ownerID, title string) (*model.Project, error) {
	project := &model.Project{
		TeamID:  teamID,
		OwnerID: ownerID,
		Title:   title,
	}

	// 锁团队行，与团队删除的项目计数互斥
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.teamRepo.WithTx(tx).LockByID(ctx, teamID); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Create(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return project, s.bus.Publish(ctx, event.ProjectCreated{Project: project})
}

func (s *projectService) Get(ctx context.Context, actor *model.User, id string) (*dto.ProjectResponse, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionRead, project); err != nil {
		return nil, err
	}
	return s.toResponse(project), nil
}

func (s *projectService) List(ctx context.Context, actor *model.User, teamID string) ([]*dto.ProjectResponse, error) {
	if err := s.authz.Authorize(ctx, actor, ActionRead, &model.Project{TeamID: teamID}); err != nil {
		return nil, err
	}

	projects, err := s.repo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ProjectResponse, len(projects))
	for i, project := range projects {
		responses[i] = s.toResponse(project)
	}
	return responses, nil
}

// Update 只允许修改标题，不发布事件
func (s *projectService) Update(ctx context.Context, actor *model.User, id string, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionUpdate, project); err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != project.Title {
		project.Title = *req.Title
		if err := s.repo.Update(ctx, project); err != nil {
			return nil, err
		}
	}
	return s.toResponse(project), nil
}

func (s *projectService) Delete(ctx context.Context, actor *model.User, id string) error {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, ActionDelete, project); err != nil {
		return err
	}

	// 锁项目行，与任务列表的插入互斥
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockByID(ctx, project.ID); err != nil {
			return err
		}
		lists, err := s.listRepo.WithTx(tx).CountByProject(ctx, project.ID)
		if err != nil {
			return err
		}
		if lists > 0 {
			return pkgErrors.ErrProjectNotEmpty
		}
		return repo.Delete(ctx, project.ID)
	})
}

func (s *projectService) toResponse(project *model.Project) *dto.ProjectResponse {
	return &dto.ProjectResponse{
		ID:        project.ID,
		TeamID:    project.TeamID,
		OwnerID:   project.OwnerID,
		Title:     project.Title,
		CreatedAt: formatTime(project.CreatedAt),
		UpdatedAt: formatTime(project.UpdatedAt),
	}
}
