package repository

import (
	"context"

	"gorm.io/gorm"

	"taskhub/internal/model"
	pkgErrors "taskhub/pkg/errors"
)

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByIdentity(ctx context.Context, provider, externalID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// ListWithoutOwnedTeam 没有任何自有团队的用户
	ListWithoutOwnedTeam(ctx context.Context, limit int) ([]*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return createError(err, "创建用户失败")
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, findError(err, "查询用户失败")
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Order("created_at ASC").First(&user).Error; err != nil {
		return nil, findError(err, "查询用户失败")
	}
	return &user, nil
}

func (r *userRepository) FindByIdentity(ctx context.Context, provider, externalID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("provider = ? AND external_id = ?", provider, externalID).
		First(&user).Error
	if err != nil {
		return nil, findError(err, "查询用户失败")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新用户失败", err)
	}
	return nil
}

func (r *userRepository) ListWithoutOwnedTeam(ctx context.Context, limit int) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM teams WHERE teams.owner_id = users.id)").
		Where("is_blocked = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户列表失败", err)
	}
	return users, nil
}
