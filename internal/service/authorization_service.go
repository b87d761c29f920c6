package service

import (
	"context"
	"errors"

	"taskhub/internal/model"
	"taskhub/internal/pkg/auth"
	"taskhub/internal/repository"
	pkgErrors "taskhub/pkg/errors"
)

// Action 被授权的操作
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// AuthorizationService 沿 用户 -> 团队成员 -> 团队 的关系链判断权限。
//
// 判断顺序：
//  1. 未登录直接拒绝
//  2. 需要所有权的修改操作（团队、项目、任务列表的更新/删除）只比较 owner_id
//  3. 读操作以及全部任务操作要求在所属团队中有 active 成员关系，否则按不存在处理
//  4. 查看他人用户信息需要系统角色权限
//
// 失败时只返回通用错误，不暴露具体是哪一项检查未通过。
type AuthorizationService interface {
	Authorize(ctx context.Context, user *model.User, action Action, entity interface{}) error
	// RequireActiveMember 不是 active 成员时返回 ErrNotFound
	RequireActiveMember(ctx context.Context, user *model.User, teamID string) error
	// RequireOwner 所有者不匹配时返回 ErrUnauthorized
	RequireOwner(user *model.User, ownerID string) error
	// RequireTeamOwner 非成员返回 ErrNotFound，成员但非所有者返回 ErrUnauthorized
	RequireTeamOwner(ctx context.Context, user *model.User, teamID string) (*model.Team, error)
	IsActiveMember(ctx context.Context, teamID, userID string) (bool, error)
	CanViewUser(user *model.User, targetID string) bool
}

type authorizationService struct {
	teamRepo    repository.TeamRepository
	memberRepo  repository.TeamMemberRepository
	projectRepo repository.ProjectRepository
}

func NewAuthorizationService(
	teamRepo repository.TeamRepository,
	memberRepo repository.TeamMemberRepository,
	projectRepo repository.ProjectRepository,
) AuthorizationService {
	return &authorizationService{
		teamRepo:    teamRepo,
		memberRepo:  memberRepo,
		projectRepo: projectRepo,
	}
}

func (s *authorizationService) Authorize(ctx context.Context, user *model.User, action Action, entity interface{}) error {
	if user == nil {
		return pkgErrors.ErrUnauthenticated
	}

	switch e := entity.(type) {
	case *model.User:
		if s.CanViewUser(user, e.ID) {
			return nil
		}
		return pkgErrors.ErrUnauthorized

	case *model.Team:
		switch action {
		case ActionCreate:
			return nil
		case ActionUpdate, ActionDelete:
			return s.RequireOwner(user, e.OwnerID)
		default:
			return s.RequireActiveMember(ctx, user, e.ID)
		}

	case *model.TeamMember:
		switch action {
		case ActionRead:
			return s.RequireActiveMember(ctx, user, e.TeamID)
		case ActionUpdate, ActionDelete:
			if e.UserID == user.ID {
				return nil
			}
		}
		_, err := s.RequireTeamOwner(ctx, user, e.TeamID)
		return err

	case *model.Project:
		switch action {
		case ActionCreate:
			_, err := s.RequireTeamOwner(ctx, user, e.TeamID)
			return err
		case ActionUpdate, ActionDelete:
			return s.RequireOwner(user, e.OwnerID)
		default:
			return s.RequireActiveMember(ctx, user, e.TeamID)
		}

	case *model.TaskList:
		switch action {
		case ActionCreate:
			project, err := s.projectRepo.FindByID(ctx, e.ProjectID)
			if err != nil {
				return notFound(err)
			}
			if project.OwnerID != user.ID {
				return pkgErrors.ErrNotFound
			}
			return s.RequireActiveMember(ctx, user, project.TeamID)
		case ActionUpdate, ActionDelete:
			return s.RequireOwner(user, e.OwnerID)
		default:
			return s.RequireActiveMember(ctx, user, e.TeamID)
		}

	case *model.Task:
		return s.RequireActiveMember(ctx, user, e.TeamID)
	}

	return pkgErrors.ErrUnauthorized
}

func (s *authorizationService) RequireActiveMember(ctx context.Context, user *model.User, teamID string) error {
	if user == nil {
		return pkgErrors.ErrUnauthenticated
	}
	ok, err := s.IsActiveMember(ctx, teamID, user.ID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgErrors.ErrNotFound
	}
	return nil
}

func (s *authorizationService) RequireOwner(user *model.User, ownerID string) error {
	if user == nil {
		return pkgErrors.ErrUnauthenticated
	}
	if user.ID != ownerID {
		return pkgErrors.ErrUnauthorized
	}
	return nil
}

func (s *authorizationService) RequireTeamOwner(ctx context.Context, user *model.User, teamID string) (*model.Team, error) {
	if user == nil {
		return nil, pkgErrors.ErrUnauthenticated
	}
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return nil, notFound(err)
	}
	if team.OwnerID == user.ID {
		return team, nil
	}
	if err := s.RequireActiveMember(ctx, user, teamID); err != nil {
		return nil, err
	}
	return nil, pkgErrors.ErrUnauthorized
}

func (s *authorizationService) IsActiveMember(ctx context.Context, teamID, userID string) (bool, error) {
	member, err := s.memberRepo.FindByTeamAndUser(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return member.IsActive(), nil
}

func (s *authorizationService) CanViewUser(user *model.User, targetID string) bool {
	if user == nil {
		return false
	}
	return user.ID == targetID || auth.Allow([]string{user.Role}, auth.PermUserViewAny)
}

// notFound 查询不到时统一返回 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return pkgErrors.ErrNotFound
	}
	return err
}
