package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"taskhub/internal/pkg/config"
	"taskhub/internal/service"
)

const (
	jobReconcile = "reconcile"

	defaultReconcileCron = "0 */10 * * * *"
	reconcileTimeout     = 5 * time.Minute
)

// Scheduler 调度器
type Scheduler struct {
	cron          *cron.Cron
	logger        *zap.Logger
	reconciler    service.ReconcileService
	cronSchedules map[string]cron.EntryID // 存储任务ID，便于管理
}

// NewScheduler 创建调度器
func NewScheduler(reconciler service.ReconcileService, logger *zap.Logger) *Scheduler {
	// 创建 cron 实例（带秒级支持）
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	return &Scheduler{
		cron:          c,
		logger:        logger,
		reconciler:    reconciler,
		cronSchedules: make(map[string]cron.EntryID),
	}
}

// Start 启动调度器
func (s *Scheduler) Start(cfg *config.SchedulerConfig) error {
	log := s.logger.Sugar()

	if !cfg.Enabled {
		log.Info("定时任务调度器未启用")
		return nil
	}

	// cron 表达式格式: 秒 分 时 日 月 周
	cronExpr := cfg.ReconcileCron
	if cronExpr == "" {
		cronExpr = defaultReconcileCron
		log.Warnw("未配置scheduler.reconcile_cron，使用默认值", "cron", cronExpr)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		log.Info("执行定时任务: 级联补偿")
		if err := s.TriggerReconcile(); err != nil {
			log.Errorf("级联补偿任务执行失败: %v", err)
		}
	})
	if err != nil {
		log.Errorf("注册级联补偿任务 %s 失败: %v", cronExpr, err)
		return err
	}

	s.cronSchedules[jobReconcile] = entryID
	log.Infof("级联补偿任务已注册: %s entry_id=%d", cronExpr, entryID)

	s.cron.Start()
	log.Info("定时任务调度器启动成功")

	return nil
}

// Stop 停止调度器（等待正在执行的任务完成）
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("定时任务调度器已停止")
}

// TriggerReconcile 立即执行一次级联补偿
func (s *Scheduler) TriggerReconcile() error {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	_, err := s.reconciler.Run(ctx)
	return err
}

// Entries 已注册的任务
func (s *Scheduler) Entries() map[string]cron.EntryID {
	return s.cronSchedules
}
