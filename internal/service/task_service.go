package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"taskhub/internal/core/event"
	"taskhub/internal/core/ordering"
	"taskhub/internal/dto"
	"taskhub/internal/metrics"
	"taskhub/internal/model"
	"taskhub/internal/repository"
	pkgErrors "taskhub/pkg/errors"
)

const scopeTask = "task"

// maxLockAttempts 加锁后发现任务已被移走时的最大重试次数
const maxLockAttempts = 3

type TaskService interface {
	Create(ctx context.Context, actor *model.User, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	Get(ctx context.Context, actor *model.User, id string) (*dto.TaskResponse, error)
	List(ctx context.Context, actor *model.User, listID string) ([]*dto.TaskResponse, error)
	// Update 支持在同一项目的任务列表之间移动，position 缺省时追加到目标列表末尾
	Update(ctx context.Context, actor *model.User, id string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

type taskService struct {
	db       *gorm.DB
	repo     repository.TaskRepository
	listRepo repository.TaskListRepository
	authz    AuthorizationService
	bus      *event.Bus
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewTaskService(
	db *gorm.DB,
	repo repository.TaskRepository,
	listRepo repository.TaskListRepository,
	authz AuthorizationService,
	bus *event.Bus,
	m *metrics.Metrics,
) TaskService {
	return &taskService{
		db:       db,
		repo:     repo,
		listRepo: listRepo,
		authz:    authz,
		bus:      bus,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *taskService) Create(ctx context.Context, actor *model.User, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	list, err := s.listRepo.FindByID(ctx, req.ListID)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		ListID:      list.ID,
		ProjectID:   list.ProjectID,
		TeamID:      list.TeamID,
		OwnerID:     actorID(actor),
		Title:       req.Title,
		Description: emptyToNil(req.Description),
		DueAt:       req.DueAt,
	}
	if err := s.authz.Authorize(ctx, actor, ActionCreate, task); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, task.TeamID, req.AssigneeID); err != nil {
		return nil, err
	}
	task.AssigneeID = emptyToNil(req.AssigneeID)
	if req.IsCompleted != nil {
		task.SetCompleted(*req.IsCompleted, s.now())
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.listRepo.WithTx(tx).LockByID(ctx, list.ID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		siblings, err := repo.Siblings(ctx, list.ID)
		if err != nil {
			return err
		}

		pos, updates := ordering.Insert(siblings, req.Position)
		if err := repo.ApplyPositions(ctx, updates); err != nil {
			return err
		}
		s.metrics.ObserveReflow(scopeTask, "insert", len(updates))

		task.Position = pos
		return repo.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	return s.toResponse(task), cascadeResult(s.bus.Publish(ctx, event.TaskCreated{Task: task}))
}

func (s *taskService) Get(ctx context.Context, actor *model.User, id string) (*dto.TaskResponse, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionRead, task); err != nil {
		return nil, err
	}
	return s.toResponse(task), nil
}

func (s *taskService) List(ctx context.Context, actor *model.User, listID string) ([]*dto.TaskResponse, error) {
	list, err := s.listRepo.FindByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionRead, list); err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListByList(ctx, list.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.TaskResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = s.toResponse(task)
	}
	return responses, nil
}

func (s *taskService) Update(ctx context.Context, actor *model.User, id string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionUpdate, task); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, task.TeamID, req.AssigneeID); err != nil {
		return nil, err
	}

	var targetID string
	if req.ListID != nil {
		target, err := s.listRepo.FindByID(ctx, *req.ListID)
		if err != nil {
			return nil, err
		}
		if target.ProjectID != task.ProjectID {
			return nil, pkgErrors.ErrTaskListScope
		}
		targetID = target.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.lockScope(ctx, tx, task.ID, targetID)
		if err != nil {
			return err
		}
		task = current
		moving := targetID != "" && targetID != task.ListID

		switch {
		case moving:
			if err := s.moveAcross(ctx, repo, task, targetID, req.Position); err != nil {
				return err
			}
		case req.Position != nil && *req.Position != task.Position:
			siblings, err := repo.Siblings(ctx, task.ListID)
			if err != nil {
				return err
			}
			pos, updates, err := ordering.Move(siblings, task.ID, *req.Position)
			if err != nil {
				return pkgErrors.ErrInternalError.WithCause(err)
			}
			if err := repo.ApplyPositions(ctx, updates); err != nil {
				return err
			}
			s.metrics.ObserveReflow(scopeTask, "move", len(updates))
			task.Position = pos
		}

		s.applyFields(task, req)
		return repo.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	return s.toResponse(task), cascadeResult(s.bus.Publish(ctx, event.TaskUpdated{Task: task}))
}

// lockScope 在事务内读取任务并锁住其当前列表（移动时连同目标列表，按ID顺序加锁）。
// 读取与加锁之间任务可能被并发移走，此时补锁新列表后重新读取。
func (s *taskService) lockScope(ctx context.Context, tx *gorm.DB, taskID, targetID string) (*model.Task, error) {
	listRepo := s.listRepo.WithTx(tx)
	repo := s.repo.WithTx(tx)
	locked := make(map[string]bool, 2)

	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		task, err := repo.FindByID(ctx, taskID)
		if err != nil {
			return nil, err
		}

		ids := []string{task.ListID}
		if targetID != "" && targetID != task.ListID {
			ids = append(ids, targetID)
		}
		sort.Strings(ids)
		for _, listID := range ids {
			if locked[listID] {
				continue
			}
			if _, err := listRepo.LockByID(ctx, listID); err != nil {
				return nil, err
			}
			locked[listID] = true
		}

		current, err := repo.FindByID(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if current.ListID == task.ListID {
			return current, nil
		}
	}
	return nil, pkgErrors.ErrInternalError.WithCause(fmt.Errorf("task %s keeps moving between lists", taskID))
}

// moveAcross 从原列表移除并插入目标列表，两个范围都保持稠密
func (s *taskService) moveAcross(ctx context.Context, repo repository.TaskRepository, task *model.Task, targetID string, position *int) error {
	oldSiblings, err := repo.Siblings(ctx, task.ListID)
	if err != nil {
		return err
	}
	removed, err := ordering.Remove(oldSiblings, task.ID)
	if err != nil {
		return pkgErrors.ErrInternalError.WithCause(err)
	}
	if err := repo.ApplyPositions(ctx, removed); err != nil {
		return err
	}

	newSiblings, err := repo.Siblings(ctx, targetID)
	if err != nil {
		return err
	}
	pos, inserted := ordering.Insert(newSiblings, position)
	if err := repo.ApplyPositions(ctx, inserted); err != nil {
		return err
	}
	s.metrics.ObserveReflow(scopeTask, "transfer", len(removed)+len(inserted))

	task.ListID = targetID
	task.Position = pos
	return nil
}

func (s *taskService) applyFields(task *model.Task, req *dto.UpdateTaskRequest) {
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = emptyToNil(req.Description)
	}
	if req.DueAt != nil {
		task.DueAt = req.DueAt
	}
	if req.AssigneeID != nil {
		task.AssigneeID = emptyToNil(req.AssigneeID)
	}
	if req.IsCompleted != nil {
		task.SetCompleted(*req.IsCompleted, s.now())
	}
}

func (s *taskService) Delete(ctx context.Context, actor *model.User, id string) error {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, ActionDelete, task); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.lockScope(ctx, tx, task.ID, "")
		if err != nil {
			return err
		}
		task = current

		repo := s.repo.WithTx(tx)
		siblings, err := repo.Siblings(ctx, task.ListID)
		if err != nil {
			return err
		}
		updates, err := ordering.Remove(siblings, task.ID)
		if err != nil {
			return pkgErrors.ErrInternalError.WithCause(err)
		}
		if err := repo.Delete(ctx, task.ID); err != nil {
			return err
		}
		s.metrics.ObserveReflow(scopeTask, "remove", len(updates))
		return repo.ApplyPositions(ctx, updates)
	})
	if err != nil {
		return err
	}

	return cascadeResult(s.bus.Publish(ctx, event.TaskDeleted{Task: task}))
}

// checkAssignee 负责人必须是团队的 active 成员，空字符串表示不指定
func (s *taskService) checkAssignee(ctx context.Context, teamID string, assigneeID *string) error {
	if assigneeID == nil || *assigneeID == "" {
		return nil
	}
	ok, err := s.authz.IsActiveMember(ctx, teamID, *assigneeID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgErrors.ErrValidationError.WithFields(map[string]string{
			"assignee_id": "负责人必须是团队成员",
		})
	}
	return nil
}

func (s *taskService) toResponse(task *model.Task) *dto.TaskResponse {
	return &dto.TaskResponse{
		ID:          task.ID,
		ListID:      task.ListID,
		ProjectID:   task.ProjectID,
		TeamID:      task.TeamID,
		OwnerID:     task.OwnerID,
		AssigneeID:  task.AssigneeID,
		Title:       task.Title,
		Description: task.Description,
		DueAt:       formatTimePtr(task.DueAt),
		IsCompleted: task.IsCompleted,
		CompletedAt: formatTimePtr(task.CompletedAt),
		Position:    task.Position,
		CreatedAt:   formatTime(task.CreatedAt),
		UpdatedAt:   formatTime(task.UpdatedAt),
	}
}

func actorID(actor *model.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
