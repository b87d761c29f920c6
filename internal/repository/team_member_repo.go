package repository

import (
	"context"

	"gorm.io/gorm"

	"taskhub/internal/model"
	pkgErrors "taskhub/pkg/errors"
)

type TeamMemberRepository interface {
	WithTx(tx *gorm.DB) TeamMemberRepository
	Create(ctx context.Context, member *model.TeamMember) error
	Update(ctx context.Context, member *model.TeamMember) error
	FindByID(ctx context.Context, id string) (*model.TeamMember, error)
	FindByTeamAndUser(ctx context.Context, teamID, userID string) (*model.TeamMember, error)
	ListByTeam(ctx context.Context, teamID string, opts ...QueryOption) ([]*model.TeamMember, error)
	// ListPendingByUser 团队已邀请但用户尚未接受的成员记录
	ListPendingByUser(ctx context.Context, userID string, opts ...QueryOption) ([]*model.TeamMember, error)
	CountOthers(ctx context.Context, teamID, exceptUserID string) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteByTeam(ctx context.Context, teamID string) error
}

type teamMemberRepository struct {
	db *gorm.DB
}

func NewTeamMemberRepository(db *gorm.DB) TeamMemberRepository {
	return &teamMemberRepository{db: db}
}

func (r *teamMemberRepository) WithTx(tx *gorm.DB) TeamMemberRepository {
	return &teamMemberRepository{db: tx}
}

func (r *teamMemberRepository) Create(ctx context.Context, member *model.TeamMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return createError(err, "添加团队成员失败")
	}
	return nil
}

func (r *teamMemberRepository) Update(ctx context.Context, member *model.TeamMember) error {
	err := r.db.WithContext(ctx).Model(member).Select("has_user_accepted", "has_team_accepted", "updated_at").Updates(member).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新团队成员失败", err)
	}
	return nil
}

func (r *teamMemberRepository) FindByID(ctx context.Context, id string) (*model.TeamMember, error) {
	var member model.TeamMember
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		return nil, findError(err, "查询团队成员失败")
	}
	return &member, nil
}

func (r *teamMemberRepository) FindByTeamAndUser(ctx context.Context, teamID, userID string) (*model.TeamMember, error) {
	var member model.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Order("created_at ASC").
		First(&member).Error
	if err != nil {
		return nil, findError(err, "查询团队成员失败")
	}
	return &member, nil
}

func (r *teamMemberRepository) ListByTeam(ctx context.Context, teamID string, opts ...QueryOption) ([]*model.TeamMember, error) {
	var members []*model.TeamMember
	query := applyOptions(r.db.WithContext(ctx), opts)
	if err := query.Where("team_id = ?", teamID).Order("created_at ASC").Find(&members).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询团队成员失败", err)
	}
	return members, nil
}

func (r *teamMemberRepository) ListPendingByUser(ctx context.Context, userID string, opts ...QueryOption) ([]*model.TeamMember, error) {
	var members []*model.TeamMember
	query := applyOptions(r.db.WithContext(ctx), opts)
	err := query.
		Where("user_id = ? AND has_user_accepted = ? AND has_team_accepted = ?", userID, false, true).
		Order("created_at DESC").
		Find(&members).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询团队邀请失败", err)
	}
	return members, nil
}

func (r *teamMemberRepository) CountOthers(ctx context.Context, teamID, exceptUserID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TeamMember{}).
		Where("team_id = ? AND user_id <> ?", teamID, exceptUserID).
		Count(&count).Error
	if err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计团队成员失败", err)
	}
	return count, nil
}

func (r *teamMemberRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.TeamMember{}).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除团队成员失败", err)
	}
	return nil
}

func (r *teamMemberRepository) DeleteByTeam(ctx context.Context, teamID string) error {
	if err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Delete(&model.TeamMember{}).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除团队成员失败", err)
	}
	return nil
}
