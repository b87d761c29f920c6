package main

import (
	"github.com/spf13/cobra"

	"taskhub/internal/pkg/database"
	"taskhub/internal/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "同步数据库表结构",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
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

	if err := database.Migrate(database.GetDB()); err != nil {
		return err
	}

	logger.Info("表结构同步完成")
	return nil
}
