package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"taskhub/internal/core/event"
	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/internal/repository"
	pkgErrors "taskhub/pkg/errors"
)

type TeamMemberService interface {
	// Invite 团队所有者按邮箱邀请成员，已存在的成员记录只补充团队确认
	Invite(ctx context.Context, actor *model.User, req *dto.InviteMemberRequest) (*dto.TeamMemberResponse, error)
	List(ctx context.Context, actor *model.User, query *dto.MemberListQuery) ([]*dto.TeamMemberResponse, error)
	Update(ctx context.Context, actor *model.User, id string, req *dto.UpdateMemberRequest) (*dto.TeamMemberResponse, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	// EnsureMember 查找或创建 (team, user) 成员记录，确认标志只会被置为 true
	EnsureMember(ctx context.Context, teamID, userID string, userAccepted, teamAccepted bool) (*model.TeamMember, error)
}

type teamMemberService struct {
	db       *gorm.DB
	repo     repository.TeamMemberRepository
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	users    UserService
	authz    AuthorizationService
	bus      *event.Bus
}

func NewTeamMemberService(
	db *gorm.DB,
	repo repository.TeamMemberRepository,
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	users UserService,
	authz AuthorizationService,
	bus *event.Bus,
) TeamMemberService {
	return &teamMemberService{
		db:       db,
		repo:     repo,
		teamRepo: teamRepo,
		userRepo: userRepo,
		users:    users,
		authz:    authz,
		bus:      bus,
	}
}

func (s *teamMemberService) Invite(ctx context.Context, actor *model.User, req *dto.InviteMemberRequest) (*dto.TeamMemberResponse, error) {
	if err := s.authz.Authorize(ctx, actor, ActionCreate, &model.TeamMember{TeamID: req.TeamID}); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrUserNotFound
		}
		return nil, err
	}

	member, err := s.EnsureMember(ctx, req.TeamID, user.ID, false, true)
	if member == nil {
		return nil, err
	}
	member.User = user
	return s.toResponse(member), cascadeResult(err)
}

func (s *teamMemberService) EnsureMember(ctx context.Context, teamID, userID string, userAccepted, teamAccepted bool) (*model.TeamMember, error) {
	var member *model.TeamMember
	var published event.Event

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁团队行，串行化同一团队的查找或创建
		if _, err := s.teamRepo.WithTx(tx).LockByID(ctx, teamID); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByTeamAndUser(ctx, teamID, userID)
		if err != nil && !errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return err
		}

		if existing == nil {
			member = &model.TeamMember{
				TeamID:          teamID,
				UserID:          userID,
				HasUserAccepted: userAccepted,
				HasTeamAccepted: teamAccepted,
			}
			published = event.TeamMemberCreated{Member: member}
			return repo.Create(ctx, member)
		}

		member = existing
		changed := false
		if userAccepted && !member.HasUserAccepted {
			member.HasUserAccepted = true
			changed = true
		}
		if teamAccepted && !member.HasTeamAccepted {
			member.HasTeamAccepted = true
			changed = true
		}
		if !changed {
			return nil
		}
		published = event.TeamMemberUpdated{Member: member}
		return repo.Update(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	if published == nil {
		return member, nil
	}
	return member, s.bus.Publish(ctx, published)
}

func (s *teamMemberService) List(ctx context.Context, actor *model.User, query *dto.MemberListQuery) ([]*dto.TeamMemberResponse, error) {
	if actor == nil {
		return nil, pkgErrors.ErrUnauthenticated
	}

	var members []*model.TeamMember
	var err error
	if query.Pending {
		members, err = s.repo.ListPendingByUser(ctx, actor.ID, repository.WithPreload("User"))
	} else {
		if err := s.authz.Authorize(ctx, actor, ActionRead, &model.TeamMember{TeamID: query.TeamID}); err != nil {
			return nil, err
		}
		members, err = s.repo.ListByTeam(ctx, query.TeamID, repository.WithPreload("User"))
	}
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.TeamMemberResponse, len(members))
	for i, member := range members {
		responses[i] = s.toResponse(member)
	}
	return responses, nil
}

// Update 成员本人只能修改 has_user_accepted，团队所有者只能修改 has_team_accepted，
// 其余字段静默忽略。所有者自己的成员记录不可修改。
func (s *teamMemberService) Update(ctx context.Context, actor *model.User, id string, req *dto.UpdateMemberRequest) (*dto.TeamMemberResponse, error) {
	member, team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, ActionUpdate, member); err != nil {
		return nil, err
	}

	changed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 与 EnsureMember 共用团队行锁，加锁后重新读取确认标志
		if _, err := s.teamRepo.WithTx(tx).LockByID(ctx, team.ID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, member.ID)
		if err != nil {
			return err
		}
		member = current

		if member.UserID == team.OwnerID {
			return nil
		}
		if member.UserID == actor.ID && req.HasUserAccepted != nil && *req.HasUserAccepted != member.HasUserAccepted {
			member.HasUserAccepted = *req.HasUserAccepted
			changed = true
		}
		if team.OwnerID == actor.ID && req.HasTeamAccepted != nil && *req.HasTeamAccepted != member.HasTeamAccepted {
			member.HasTeamAccepted = *req.HasTeamAccepted
			changed = true
		}
		if !changed {
			return nil
		}
		return repo.Update(ctx, member)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		err = cascadeResult(s.bus.Publish(ctx, event.TeamMemberUpdated{Member: member}))
	}

	if user, findErr := s.userRepo.FindByID(ctx, member.UserID); findErr == nil {
		member.User = user
	}
	return s.toResponse(member), err
}

func (s *teamMemberService) Delete(ctx context.Context, actor *model.User, id string) error {
	member, team, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, ActionDelete, member); err != nil {
		return err
	}
	if member.UserID == team.OwnerID {
		return pkgErrors.ErrTeamOwnerMembership
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.teamRepo.WithTx(tx).LockByID(ctx, team.ID); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(ctx, member.ID)
	})
	if err != nil {
		return err
	}
	return cascadeResult(s.bus.Publish(ctx, event.TeamMemberDeleted{Member: member}))
}

func (s *teamMemberService) load(ctx context.Context, id string) (*model.TeamMember, *model.Team, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	team, err := s.teamRepo.FindByID(ctx, member.TeamID)
	if err != nil {
		return nil, nil, err
	}
	return member, team, nil
}

func (s *teamMemberService) toResponse(member *model.TeamMember) *dto.TeamMemberResponse {
	resp := &dto.TeamMemberResponse{
		ID:              member.ID,
		TeamID:          member.TeamID,
		UserID:          member.UserID,
		HasUserAccepted: member.HasUserAccepted,
		HasTeamAccepted: member.HasTeamAccepted,
		Status:          string(member.Status()),
		CreatedAt:       formatTime(member.CreatedAt),
		UpdatedAt:       formatTime(member.UpdatedAt),
	}
	if member.User != nil {
		resp.User = s.users.ToResponse(member.User)
	}
	return resp
}
