package repository

import (
	"context"

	"gorm.io/gorm"

	"taskhub/internal/model"
	pkgErrors "taskhub/pkg/errors"
)

type TeamRepository interface {
	WithTx(tx *gorm.DB) TeamRepository
	Create(ctx context.Context, team *model.Team) error
	FindByID(ctx context.Context, id string) (*model.Team, error)
	// LockByID 事务内加行锁读取
	LockByID(ctx context.Context, id string) (*model.Team, error)
	// ListByActiveMember 用户以 active 成员身份加入的团队
	ListByActiveMember(ctx context.Context, userID string) ([]*model.Team, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	Update(ctx context.Context, team *model.Team) error
	Delete(ctx context.Context, id string) error
	// ListWithoutOwnerMember 所有者没有成员记录或成员记录未双向确认的团队
	ListWithoutOwnerMember(ctx context.Context, limit int) ([]*model.Team, error)
}

type teamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) WithTx(tx *gorm.DB) TeamRepository {
	return &teamRepository{db: tx}
}

func (r *teamRepository) Create(ctx context.Context, team *model.Team) error {
	if err := r.db.WithContext(ctx).Create(team).Error; err != nil {
		return createError(err, "创建团队失败")
	}
	return nil
}

func (r *teamRepository) FindByID(ctx context.Context, id string) (*model.Team, error) {
	var team model.Team
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&team).Error; err != nil {
		return nil, findError(err, "查询团队失败")
	}
	return &team, nil
}

func (r *teamRepository) LockByID(ctx context.Context, id string) (*model.Team, error) {
	var team model.Team
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&team).Error; err != nil {
		return nil, findError(err, "查询团队失败")
	}
	return &team, nil
}

func (r *teamRepository) ListByActiveMember(ctx context.Context, userID string) ([]*model.Team, error) {
	var teams []*model.Team
	err := r.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ? AND team_members.has_user_accepted = ? AND team_members.has_team_accepted = ?", userID, true, true).
		Order("teams.created_at ASC").
		Find(&teams).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询团队列表失败", err)
	}
	return teams, nil
}

func (r *teamRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Team{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计团队失败", err)
	}
	return count, nil
}

func (r *teamRepository) Update(ctx context.Context, team *model.Team) error {
	if err := r.db.WithContext(ctx).Save(team).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新团队失败", err)
	}
	return nil
}

func (r *teamRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Team{}).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除团队失败", err)
	}
	return nil
}

func (r *teamRepository) ListWithoutOwnerMember(ctx context.Context, limit int) ([]*model.Team, error) {
	var teams []*model.Team
	err := r.db.WithContext(ctx).
		Where(`NOT EXISTS (SELECT 1 FROM team_members tm WHERE tm.team_id = teams.id AND tm.user_id = teams.owner_id
			AND tm.has_user_accepted = ? AND tm.has_team_accepted = ?)`, true, true).
		Order("created_at ASC").
		Limit(limit).
		Find(&teams).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询团队列表失败", err)
	}
	return teams, nil
}
