package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskhub/internal/core/ordering"
	pkgErrors "taskhub/pkg/errors"
)

type QueryOption func(*gorm.DB) *gorm.DB

func WithPreload(association string, conds ...interface{}) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(association, conds...)
	}
}

func applyOptions(db *gorm.DB, opts []QueryOption) *gorm.DB {
	for _, opt := range opts {
		db = opt(db)
	}
	return db
}

// findError 将 gorm.ErrRecordNotFound 映射为 ErrRecordNotFound，其余包装为数据库错误
func findError(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgErrors.ErrRecordNotFound
	}
	return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, message, err)
}

// createError 唯一约束冲突映射为 ErrDuplicateRecord，需开启 gorm TranslateError
func createError(err error, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgErrors.ErrDuplicateRecord.WithCause(err)
	}
	return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, message, err)
}

// forUpdate 行锁，sqlite 驱动会忽略该子句
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// applyPositions 写回排序变更
func applyPositions(db *gorm.DB, model interface{}, updates []ordering.Update) error {
	for _, u := range updates {
		if err := db.Model(model).Where("id = ?", u.ID).Update("position", u.Position).Error; err != nil {
			return err
		}
	}
	return nil
}

// siblingOrder 同级排序规则：position 升序，同位置时新建的在前
const siblingOrder = "position ASC, created_at DESC"
