package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskhub/internal/core/event"
	"taskhub/internal/pkg/database"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/service"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "立即执行一次级联补偿",
	RunE:  runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Close()
	}()

	if err := database.Init(&cfg.Database); err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	services := service.New(service.Deps{
		DB:     database.GetDB(),
		Config: cfg,
		Bus:    event.NewBus(logger.Named("event"), nil),
	})

	report, err := services.Reconcile.Run(context.Background())
	if err != nil {
		return err
	}

	logger.Info("级联补偿完成",
		zap.Int("replayed", report.Replayed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("teams", report.Teams),
		zap.Int("members", report.Members),
	)
	return nil
}
