package repository

import (
	"context"

	"gorm.io/gorm"

	"taskhub/internal/core/ordering"
	"taskhub/internal/model"
	pkgErrors "taskhub/pkg/errors"
)

type TaskRepository interface {
	WithTx(tx *gorm.DB) TaskRepository
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	ListByList(ctx context.Context, listID string) ([]*model.Task, error)
	// Siblings 任务列表内全部任务的排序视图
	Siblings(ctx context.Context, listID string) ([]ordering.Item, error)
	CountByList(ctx context.Context, listID string) (int64, error)
	Update(ctx context.Context, task *model.Task) error
	ApplyPositions(ctx context.Context, updates []ordering.Update) error
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) WithTx(tx *gorm.DB) TaskRepository {
	return &taskRepository{db: tx}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return createError(err, "创建任务失败")
	}
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, findError(err, "查询任务失败")
	}
	return &task, nil
}

func (r *taskRepository) ListByList(ctx context.Context, listID string) ([]*model.Task, error) {
	var tasks []*model.Task
	if err := r.db.WithContext(ctx).Where("list_id = ?", listID).Order(siblingOrder).Find(&tasks).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询任务失败", err)
	}
	return tasks, nil
}

func (r *taskRepository) Siblings(ctx context.Context, listID string) ([]ordering.Item, error) {
	var items []ordering.Item
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("id", "position").
		Where("list_id = ?", listID).
		Order(siblingOrder).
		Scan(&items).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询任务排序失败", err)
	}
	return items, nil
}

func (r *taskRepository) CountByList(ctx context.Context, listID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("list_id = ?", listID).Count(&count).Error; err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计任务失败", err)
	}
	return count, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新任务失败", err)
	}
	return nil
}

func (r *taskRepository) ApplyPositions(ctx context.Context, updates []ordering.Update) error {
	if err := applyPositions(r.db.WithContext(ctx), &model.Task{}, updates); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新任务排序失败", err)
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{}).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除任务失败", err)
	}
	return nil
}
