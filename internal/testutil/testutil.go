// Package testutil 提供测试用的内存数据库与配置
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskhub/internal/pkg/config"
	"taskhub/internal/pkg/database"
	"taskhub/pkg/constants"
)

// JWTSecret 测试配置使用的签名密钥
const JWTSecret = "test-secret"

// NewDB 每次调用返回一个独立的 sqlite 内存库，并已完成迁移
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{
		Driver:   constants.DriverSQLite,
		Database: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Config 最小可用配置，gatewaySecretHash 为空时网关校验总是失败
func Config(gatewaySecretHash string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Name: "taskhub", Mode: "test"},
		Database: config.DatabaseConfig{
			Driver: constants.DriverSQLite,
		},
		Session: config.SessionConfig{TTL: 3600, KeyPrefix: "session:"},
		Auth: config.AuthConfig{
			JWT:     config.JWTConfig{Secret: JWTSecret, AccessTokenExpire: 7200},
			Gateway: config.GatewayConfig{SecretHash: gatewaySecretHash},
		},
		Scheduler: config.SchedulerConfig{Enabled: false},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}
