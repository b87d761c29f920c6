package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"taskhub/internal/pkg/config"
	"taskhub/internal/pkg/crypto"
)

// ErrNotFound 会话不存在或已过期
var ErrNotFound = errors.New("session not found")

// sessionIDBytes 会话ID随机字节数
const sessionIDBytes = 32

// Session 服务端会话
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store 会话存储
type Store interface {
	Create(ctx context.Context, userID string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Connect 支持 redis:// URL 或 host:port
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: cfg.URL, Password: cfg.Password, DB: cfg.DB})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, cfg *config.SessionConfig) Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "session:"
	}
	return &redisStore{
		client: client,
		prefix: prefix,
		ttl:    cfg.SessionTTL(),
		now:    time.Now,
	}
}

func (s *redisStore) key(id string) string {
	return s.prefix + id
}

func (s *redisStore) Create(ctx context.Context, userID string) (*Session, error) {
	id, err := crypto.RandomHex(sessionIDBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := s.now().UTC()
	sess := &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !sess.ExpiresAt.After(s.now()) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
