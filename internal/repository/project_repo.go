package repository

import (
	"context"

	"gorm.io/gorm"

	"taskhub/internal/model"
	pkgErrors "taskhub/pkg/errors"
)

type ProjectRepository interface {
	WithTx(tx *gorm.DB) ProjectRepository
	Create(ctx context.Context, project *model.Project) error
	FindByID(ctx context.Context, id string) (*model.Project, error)
	// LockByID 事务内加行锁读取，用于串行化同一项目下任务列表的重排
	LockByID(ctx context.Context, id string) (*model.Project, error)
	ListByTeam(ctx context.Context, teamID string) ([]*model.Project, error)
	CountByTeam(ctx context.Context, teamID string) (int64, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string) error
	DeleteByTeam(ctx context.Context, teamID string) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) WithTx(tx *gorm.DB) ProjectRepository {
	return &projectRepository{db: tx}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return createError(err, "创建项目失败")
	}
	return nil
}

func (r *projectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, findError(err, "查询项目失败")
	}
	return &project, nil
}

func (r *projectRepository) LockByID(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, findError(err, "查询项目失败")
	}
	return &project, nil
}

func (r *projectRepository) ListByTeam(ctx context.Context, teamID string) ([]*model.Project, error) {
	var projects []*model.Project
	if err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Order("created_at ASC").Find(&projects).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目列表失败", err)
	}
	return projects, nil
}

func (r *projectRepository) CountByTeam(ctx context.Context, teamID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Project{}).Where("team_id = ?", teamID).Count(&count).Error; err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计项目失败", err)
	}
	return count, nil
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新项目失败", err)
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Project{}).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除项目失败", err)
	}
	return nil
}

func (r *projectRepository) DeleteByTeam(ctx context.Context, teamID string) error {
	if err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Delete(&model.Project{}).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除项目失败", err)
	}
	return nil
}
