package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/internal/pkg/config"
	"taskhub/internal/pkg/crypto"
	"taskhub/internal/pkg/jwt"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/session"
	"taskhub/internal/repository"
	pkgErrors "taskhub/pkg/errors"
)

type AuthService interface {
	// CreateSession 身份网关提交已验证的外部身份，登录后创建会话并签发Token
	CreateSession(ctx context.Context, gatewaySecret string, req *dto.SignInRequest) (*dto.SessionResponse, error)
	// Authenticate 校验Token并加载会话与用户
	Authenticate(ctx context.Context, token string) (*model.User, *session.Session, error)
	SignOut(ctx context.Context, sessionID string) error
}

type authService struct {
	cfg      *config.AuthConfig
	sessions session.Store
	userRepo repository.UserRepository
	users    UserService
	now      func() time.Time
}

func NewAuthService(
	cfg *config.AuthConfig,
	sessions session.Store,
	userRepo repository.UserRepository,
	users UserService,
) AuthService {
	return &authService{
		cfg:      cfg,
		sessions: sessions,
		userRepo: userRepo,
		users:    users,
		now:      time.Now,
	}
}

func (s *authService) CreateSession(ctx context.Context, gatewaySecret string, req *dto.SignInRequest) (*dto.SessionResponse, error) {
	if !crypto.CheckPassword(gatewaySecret, s.cfg.Gateway.SecretHash) {
		return nil, pkgErrors.ErrGatewayRejected
	}

	// 级联失败时用户已创建，仍然建立会话，错误随响应一起返回
	user, signInErr := s.users.SignIn(ctx, req)
	if signInErr != nil && !pkgErrors.HasCode(signInErr, pkgErrors.ErrCodeCascadeFailed) {
		return nil, signInErr
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "创建会话失败", err)
	}

	now := s.now()
	token, err := jwt.GenerateAccessToken(&s.cfg.JWT, user.ID, sess.ID, user.Role, now)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成AccessToken失败", err)
	}

	expiresAt := now.Add(time.Duration(s.cfg.JWT.AccessTokenExpire) * time.Second)
	if sess.ExpiresAt.Before(expiresAt) {
		expiresAt = sess.ExpiresAt
	}

	return &dto.SessionResponse{
		Token:     token,
		ExpiresAt: formatTime(expiresAt),
		User:      s.users.ToResponse(user),
	}, signInErr
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, *session.Session, error) {
	claims, err := jwt.ParseToken(&s.cfg.JWT, token)
	if err != nil {
		return nil, nil, err
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, nil, pkgErrors.ErrSessionExpired
		}
		logger.Error("读取会话失败", zap.String("session_id", claims.SessionID), zap.Error(err))
		return nil, nil, pkgErrors.ErrInternalError.WithCause(err)
	}
	if sess.UserID != claims.UserID {
		return nil, nil, pkgErrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, nil, pkgErrors.ErrUnauthenticated
		}
		return nil, nil, err
	}
	if user.IsBlocked {
		return nil, nil, pkgErrors.ErrUserBlocked
	}

	return user, sess, nil
}

func (s *authService) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternalError, "删除会话失败", err)
	}
	return nil
}
