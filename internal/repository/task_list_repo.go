package repository

import (
	"context"

	"gorm.io/gorm"

	"taskhub/internal/core/ordering"
	"taskhub/internal/model"
	pkgErrors "taskhub/pkg/errors"
)

type TaskListRepository interface {
	WithTx(tx *gorm.DB) TaskListRepository
	Create(ctx context.Context, list *model.TaskList) error
	FindByID(ctx context.Context, id string) (*model.TaskList, error)
	// LockByID 事务内加行锁读取，用于串行化同一列表下任务的重排
	LockByID(ctx context.Context, id string) (*model.TaskList, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.TaskList, error)
	// Siblings 项目内全部任务列表的排序视图
	Siblings(ctx context.Context, projectID string) ([]ordering.Item, error)
	CountByProject(ctx context.Context, projectID string) (int64, error)
	Update(ctx context.Context, list *model.TaskList) error
	ApplyPositions(ctx context.Context, updates []ordering.Update) error
	Delete(ctx context.Context, id string) error
}

type taskListRepository struct {
	db *gorm.DB
}

func NewTaskListRepository(db *gorm.DB) TaskListRepository {
	return &taskListRepository{db: db}
}

func (r *taskListRepository) WithTx(tx *gorm.DB) TaskListRepository {
	return &taskListRepository{db: tx}
}

func (r *taskListRepository) Create(ctx context.Context, list *model.TaskList) error {
	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return createError(err, "创建任务列表失败")
	}
	return nil
}

func (r *taskListRepository) FindByID(ctx context.Context, id string) (*model.TaskList, error) {
	var list model.TaskList
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&list).Error; err != nil {
		return nil, findError(err, "查询任务列表失败")
	}
	return &list, nil
}

func (r *taskListRepository) LockByID(ctx context.Context, id string) (*model.TaskList, error) {
	var list model.TaskList
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&list).Error; err != nil {
		return nil, findError(err, "查询任务列表失败")
	}
	return &list, nil
}

func (r *taskListRepository) ListByProject(ctx context.Context, projectID string) ([]*model.TaskList, error) {
	var lists []*model.TaskList
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order(siblingOrder).Find(&lists).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询任务列表失败", err)
	}
	return lists, nil
}

func (r *taskListRepository) Siblings(ctx context.Context, projectID string) ([]ordering.Item, error) {
	var items []ordering.Item
	err := r.db.WithContext(ctx).Model(&model.TaskList{}).
		Select("id", "position").
		Where("project_id = ?", projectID).
		Order(siblingOrder).
		Scan(&items).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询任务列表排序失败", err)
	}
	return items, nil
}

func (r *taskListRepository) CountByProject(ctx context.Context, projectID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.TaskList{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计任务列表失败", err)
	}
	return count, nil
}

func (r *taskListRepository) Update(ctx context.Context, list *model.TaskList) error {
	if err := r.db.WithContext(ctx).Save(list).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新任务列表失败", err)
	}
	return nil
}

func (r *taskListRepository) ApplyPositions(ctx context.Context, updates []ordering.Update) error {
	if err := applyPositions(r.db.WithContext(ctx), &model.TaskList{}, updates); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新任务列表排序失败", err)
	}
	return nil
}

func (r *taskListRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.TaskList{}).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除任务列表失败", err)
	}
	return nil
}
