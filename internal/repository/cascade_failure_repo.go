package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"taskhub/internal/model"
	pkgErrors "taskhub/pkg/errors"
)

type CascadeFailureRepository interface {
	Create(ctx context.Context, failure *model.CascadeFailure) error
	// ListOpen 未处理的失败记录，按时间先后
	ListOpen(ctx context.Context, limit int) ([]*model.CascadeFailure, error)
	Resolve(ctx context.Context, ids []string, at time.Time) error
}

type cascadeFailureRepository struct {
	db *gorm.DB
}

func NewCascadeFailureRepository(db *gorm.DB) CascadeFailureRepository {
	return &cascadeFailureRepository{db: db}
}

func (r *cascadeFailureRepository) Create(ctx context.Context, failure *model.CascadeFailure) error {
	if err := r.db.WithContext(ctx).Create(failure).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "记录级联失败失败", err)
	}
	return nil
}

func (r *cascadeFailureRepository) ListOpen(ctx context.Context, limit int) ([]*model.CascadeFailure, error) {
	var failures []*model.CascadeFailure
	err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&failures).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询级联失败记录失败", err)
	}
	return failures, nil
}

func (r *cascadeFailureRepository) Resolve(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.CascadeFailure{}).
		Where("id IN ?", ids).
		Update("resolved_at", at).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新级联失败记录失败", err)
	}
	return nil
}
