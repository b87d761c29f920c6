package service

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/core/event"
	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/internal/pkg/config"
	"taskhub/internal/pkg/crypto"
	"taskhub/internal/pkg/jwt"
	"taskhub/internal/pkg/session"
	"taskhub/internal/testutil"
	pkgErrors "taskhub/pkg/errors"
)

const gatewaySecret = "gateway-secret"

func newAuthEnv(t *testing.T) (*testEnv, *miniredis.Miniredis) {
	t.Helper()
	hash, err := crypto.HashPassword(gatewaySecret)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testutil.Config(hash)
	env := newTestEnv(t)
	env.bus = event.NewBus(nil, nil)
	env.svc = New(Deps{
		DB:       env.db,
		Config:   cfg,
		Sessions: session.NewRedisStore(client, &cfg.Session),
		Bus:      env.bus,
	})
	return env, mr
}

func signInRequest(name string) *dto.SignInRequest {
	return &dto.SignInRequest{Provider: "github", ExternalID: "ext-" + name, Username: name, Email: name + "@example.com"}
}

func TestCreateSession_IssuesTokenBoundToSession(t *testing.T) {
	env, mr := newAuthEnv(t)

	resp, err := env.svc.Auth.CreateSession(env.ctx, gatewaySecret, signInRequest("alice"))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)

	claims, err := jwt.ParseToken(&config.JWTConfig{Secret: testutil.JWTSecret}, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.True(t, mr.Exists("session:"+claims.SessionID))

	// 会话 TTL(1h) 短于 Token 有效期(2h)
	expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	user, sess, err := env.svc.Auth.Authenticate(env.ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, claims.SessionID, sess.ID)
}

func TestCreateSession_RejectsWrongGatewaySecret(t *testing.T) {
	env, _ := newAuthEnv(t)

	_, err := env.svc.Auth.CreateSession(env.ctx, "wrong", signInRequest("alice"))
	assert.ErrorIs(t, err, pkgErrors.ErrGatewayRejected)

	_, err = env.svc.Auth.CreateSession(env.ctx, "", signInRequest("alice"))
	assert.ErrorIs(t, err, pkgErrors.ErrGatewayRejected)

	var users int64
	require.NoError(t, env.db.Model(&model.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestCreateSession_CascadeFailureStillSignsIn(t *testing.T) {
	env, _ := newAuthEnv(t)
	require.NoError(t, env.db.Migrator().DropTable(&model.Project{}))

	resp, err := env.svc.Auth.CreateSession(env.ctx, gatewaySecret, signInRequest("bob"))
	assert.ErrorIs(t, err, pkgErrors.ErrCascadeFailed)
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.Token)

	_, _, err = env.svc.Auth.Authenticate(env.ctx, resp.Token)
	require.NoError(t, err)
}

func TestAuthenticate_SignOutAndExpiry(t *testing.T) {
	env, mr := newAuthEnv(t)

	resp, err := env.svc.Auth.CreateSession(env.ctx, gatewaySecret, signInRequest("alice"))
	require.NoError(t, err)
	_, sess, err := env.svc.Auth.Authenticate(env.ctx, resp.Token)
	require.NoError(t, err)

	require.NoError(t, env.svc.Auth.SignOut(env.ctx, sess.ID))
	_, _, err = env.svc.Auth.Authenticate(env.ctx, resp.Token)
	assert.ErrorIs(t, err, pkgErrors.ErrSessionExpired)

	resp, err = env.svc.Auth.CreateSession(env.ctx, gatewaySecret, signInRequest("alice"))
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)
	_, _, err = env.svc.Auth.Authenticate(env.ctx, resp.Token)
	assert.ErrorIs(t, err, pkgErrors.ErrSessionExpired)
}

func TestAuthenticate_BlockedUser(t *testing.T) {
	env, _ := newAuthEnv(t)

	resp, err := env.svc.Auth.CreateSession(env.ctx, gatewaySecret, signInRequest("mallory"))
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", resp.User.ID).Update("is_blocked", true).Error)

	_, _, err = env.svc.Auth.Authenticate(env.ctx, resp.Token)
	assert.ErrorIs(t, err, pkgErrors.ErrUserBlocked)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	env, _ := newAuthEnv(t)
	_, _, err := env.svc.Auth.Authenticate(env.ctx, "not-a-token")
	assert.Error(t, err)
	assert.True(t, pkgErrors.HasCode(err, pkgErrors.ErrCodeUnauthenticated))
}
