package service

import (
	"context"

	"gorm.io/gorm"

	"taskhub/internal/core/event"
	"taskhub/internal/core/ordering"
	"taskhub/internal/dto"
	"taskhub/internal/metrics"
	"taskhub/internal/model"
	"taskhub/internal/repository"
	pkgErrors "taskhub/pkg/errors"
)

const scopeTaskList = "task_list"

type TaskListService interface {
	Create(ctx context.Context, actor *model.User, req *dto.CreateTaskListRequest) (*dto.TaskListResponse, error)
	Get(ctx context.Context, actor *model.User, id string) (*dto.TaskListResponse, error)
	List(ctx context.Context, actor *model.User, projectID string) ([]*dto.TaskListResponse, error)
	Update(ctx context.Context, actor *model.User, id string, req *dto.UpdateTaskListRequest) (*dto.TaskListResponse, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	// Provision 在项目内插入任务列表并发布 task-list.created，position 为空时追加到末尾
	Provision(ctx context.Context, project *model.Project, ownerID, title string, position *int) (*model.TaskList, error)
}

type taskListService struct {
	db          *gorm.DB
	repo        repository.TaskListRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	authz       AuthorizationService
	bus         *event.Bus
	metrics     *metrics.Metrics
}

func NewTaskListService(
	db *gorm.DB,
	repo repository.TaskListRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	authz AuthorizationService,
	bus *event.Bus,
	m *metrics.Metrics,
) TaskListService {
	return &taskListService{
		db:          db,
		repo:        repo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		authz:       authz,
		bus:         bus,
		metrics:     m,
	}
}

func (s *taskListService) Create(ctx context.Context, actor *model.User, req *dto.CreateTaskListRequest) (*dto.TaskListResponse, error) {
	if err := s.authz.Authorize(ctx, actor, ActionCreate, &model.TaskList{ProjectID: req.ProjectID}); err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	list, err := s.Provision(ctx, project, actor.ID, req.Title, req.Position)
	if list == nil {
		return nil, err
	}
	return s.toResponse(list), cascadeResult(err)
}

func (s *taskListService) Provision(ctx context.Context, project *model.Project, ownerID, title string, position *int) (*model.TaskList, error) {
	list := &model.TaskList{
		ProjectID: project.ID,
		TeamID:    project.TeamID,
		OwnerID:   ownerID,
		Title:     title,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.projectRepo.WithTx(tx).LockByID(ctx, project.ID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		siblings, err := repo.Siblings(ctx, project.ID)
		if err != nil {
			return err
		}

		pos, updates := ordering.Insert(siblings, position)
		if err := repo.ApplyPositions(ctx, updates); err != nil {
			return err
		}
		s.metrics.ObserveReflow(scopeTaskList, "insert", len(updates))

		list.Position = pos
		return repo.Create(ctx, list)
	})
	if err != nil {
		return nil, err
	}

	return list, s.bus.Publish(ctx, event.TaskListCreated{TaskList: list})
}

func (s *taskListService) Get(ctx context.Context, actor *model.User, id string) (*dto.TaskListResponse, error) {
	list, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionRead, list); err != nil {
		return nil, err
	}
	return s.toResponse(list), nil
}

func (s *taskListService) List(ctx context.Context, actor *model.User, projectID string) ([]*dto.TaskListResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionRead, project); err != nil {
		return nil, err
	}

	lists, err := s.repo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.TaskListResponse, len(lists))
	for i, list := range lists {
		responses[i] = s.toResponse(list)
	}
	return responses, nil
}

func (s *taskListService) Update(ctx context.Context, actor *model.User, id string, req *dto.UpdateTaskListRequest) (*dto.TaskListResponse, error) {
	list, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionUpdate, list); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.projectRepo.WithTx(tx).LockByID(ctx, list.ProjectID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		// 加锁后重新读取当前位置
		current, err := repo.FindByID(ctx, list.ID)
		if err != nil {
			return err
		}
		list = current

		if req.Title != nil {
			list.Title = *req.Title
		}

		if req.Position != nil && *req.Position != list.Position {
			siblings, err := repo.Siblings(ctx, list.ProjectID)
			if err != nil {
				return err
			}
			pos, updates, err := ordering.Move(siblings, list.ID, *req.Position)
			if err != nil {
				return pkgErrors.ErrInternalError.WithCause(err)
			}
			if err := repo.ApplyPositions(ctx, updates); err != nil {
				return err
			}
			s.metrics.ObserveReflow(scopeTaskList, "move", len(updates))
			list.Position = pos
		}

		return repo.Update(ctx, list)
	})
	if err != nil {
		return nil, err
	}

	return s.toResponse(list), cascadeResult(s.bus.Publish(ctx, event.TaskListUpdated{TaskList: list}))
}

// Delete 列表中仍有任务时拒绝删除，删除后后续列表依次前移
func (s *taskListService) Delete(ctx context.Context, actor *model.User, id string) error {
	list, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, ActionDelete, list); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.projectRepo.WithTx(tx).LockByID(ctx, list.ProjectID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		// 任务插入只锁列表行，计数前同样持有列表锁
		if _, err := repo.LockByID(ctx, list.ID); err != nil {
			return err
		}

		tasks, err := s.taskRepo.WithTx(tx).CountByList(ctx, list.ID)
		if err != nil {
			return err
		}
		if tasks > 0 {
			return pkgErrors.ErrTaskListNotEmpty
		}

		siblings, err := repo.Siblings(ctx, list.ProjectID)
		if err != nil {
			return err
		}
		updates, err := ordering.Remove(siblings, list.ID)
		if err != nil {
			return pkgErrors.ErrInternalError.WithCause(err)
		}
		if err := repo.Delete(ctx, list.ID); err != nil {
			return err
		}
		s.metrics.ObserveReflow(scopeTaskList, "remove", len(updates))
		return repo.ApplyPositions(ctx, updates)
	})
	if err != nil {
		return err
	}

	return cascadeResult(s.bus.Publish(ctx, event.TaskListDeleted{TaskList: list}))
}

func (s *taskListService) toResponse(list *model.TaskList) *dto.TaskListResponse {
	return &dto.TaskListResponse{
		ID:        list.ID,
		ProjectID: list.ProjectID,
		TeamID:    list.TeamID,
		OwnerID:   list.OwnerID,
		Title:     list.Title,
		Position:  list.Position,
		CreatedAt: formatTime(list.CreatedAt),
		UpdatedAt: formatTime(list.UpdatedAt),
	}
}
