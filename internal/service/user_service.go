package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"taskhub/internal/core/event"
	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/repository"
	"taskhub/pkg/constants"
	pkgErrors "taskhub/pkg/errors"
)

type UserService interface {
	// SignIn 按 (provider, external_id) 登录或注册，首次注册时发布 user.created
	SignIn(ctx context.Context, req *dto.SignInRequest) (*model.User, error)
	Get(ctx context.Context, actor *model.User, id string) (*dto.UserResponse, error)
	ToResponse(user *model.User) *dto.UserResponse
}

type userService struct {
	repo  repository.UserRepository
	authz AuthorizationService
	bus   *event.Bus
}

func NewUserService(repo repository.UserRepository, authz AuthorizationService, bus *event.Bus) UserService {
	return &userService{
		repo:  repo,
		authz: authz,
		bus:   bus,
	}
}

func (s *userService) SignIn(ctx context.Context, req *dto.SignInRequest) (*model.User, error) {
	user, err := s.repo.FindByIdentity(ctx, req.Provider, req.ExternalID)
	if err != nil && !errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, err
	}
	if user != nil {
		return s.syncProfile(ctx, user, req)
	}

	user = &model.User{
		Role:       constants.RoleUser,
		Provider:   req.Provider,
		ExternalID: req.ExternalID,
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		AvatarURL:  req.AvatarURL,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, pkgErrors.ErrDuplicateRecord) {
			return nil, err
		}
		// 同一身份的并发首次登录，由先提交的一方负责级联
		existing, findErr := s.repo.FindByIdentity(ctx, req.Provider, req.ExternalID)
		if findErr != nil {
			return nil, err
		}
		return s.syncProfile(ctx, existing, req)
	}
	logger.Info("新用户注册", zap.String("user_id", user.ID), zap.String("provider", user.Provider))

	return user, cascadeResult(s.bus.Publish(ctx, event.UserCreated{User: user}))
}

// syncProfile 同步外部身份资料
func (s *userService) syncProfile(ctx context.Context, user *model.User, req *dto.SignInRequest) (*model.User, error) {
	if user.IsBlocked {
		return nil, pkgErrors.ErrUserBlocked
	}
	user.Username = req.Username
	user.Email = req.Email
	user.FullName = req.FullName
	user.AvatarURL = req.AvatarURL
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, actor *model.User, id string) (*dto.UserResponse, error) {
	if actor == nil {
		return nil, pkgErrors.ErrUnauthenticated
	}
	if id == constants.UserIDMe {
		id = actor.ID
	}
	if err := s.authz.Authorize(ctx, actor, ActionRead, &model.User{BaseModel: model.BaseModel{ID: id}}); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrUserNotFound
		}
		return nil, err
	}
	return s.ToResponse(user), nil
}

func (s *userService) ToResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.ID,
		Role:      user.Role,
		Provider:  user.Provider,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
		IsBlocked: user.IsBlocked,
		CreatedAt: formatTime(user.CreatedAt),
		UpdatedAt: formatTime(user.UpdatedAt),
	}
}
