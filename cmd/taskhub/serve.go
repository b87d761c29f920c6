package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskhub/internal/api/router"
	"taskhub/internal/core/event"
	"taskhub/internal/metrics"
	"taskhub/internal/pkg/config"
	"taskhub/internal/pkg/database"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/session"
	"taskhub/internal/scheduler"
	"taskhub/internal/service"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "启动前同步表结构")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Close()
	}()

	logger.Info(fmt.Sprintf("服务 %s 启动中...", appName), zap.String("version", appVersion))

	if err := initSentry(&cfg.Sentry); err != nil {
		logger.Warn("初始化Sentry失败", zap.Error(err))
	}
	defer sentry.Flush(2 * time.Second)

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()
	logger.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver), zap.String("database", cfg.Database.Database))

	if autoMigrate {
		if err := database.Migrate(database.GetDB()); err != nil {
			return err
		}
		logger.Info("表结构同步完成")
	}

	m := metrics.New()
	if sqlDB, err := database.GetDB().DB(); err == nil {
		m.RegisterDBStats(sqlDB, cfg.Database.Database)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := session.Connect(ctx, &cfg.Redis)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		_ = redisClient.Close()
	}()

	services := service.New(service.Deps{
		DB:       database.GetDB(),
		Config:   cfg,
		Sessions: session.NewRedisStore(redisClient, &cfg.Session),
		Bus:      event.NewBus(logger.Named("event"), m),
		Metrics:  m,
	})

	// 初始化并启动定时任务调度器
	taskScheduler := scheduler.NewScheduler(services.Reconcile, logger.Named("scheduler"))
	if err := taskScheduler.Start(&cfg.Scheduler); err != nil {
		logger.Warn("定时任务调度器启动失败", zap.Error(err))
	}

	r := router.Setup(cfg, services, m)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("%s 服务启动成功", cfg.Server.Name),
			zap.String("address", addr),
			zap.String("mode", cfg.Server.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error("服务器启动失败", zap.Error(err))
		taskScheduler.Stop()
		return err
	}

	logger.Info("服务正在关闭...")

	taskScheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
		return err
	}

	logger.Info("服务已关闭")
	return nil
}

// initSentry 未配置 DSN 时跳过
func initSentry(cfg *config.SentryConfig) error {
	if cfg.DSN == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          appName + "@" + appVersion,
		TracesSampleRate: cfg.TracesSampleRate,
	})
}
