package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"taskhub/internal/core/event"
	"taskhub/internal/dto"
	"taskhub/internal/pkg/database"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/service"
	"taskhub/pkg/constants"
	pkgErrors "taskhub/pkg/errors"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "从 YAML 文件导入用户（同时创建默认团队、项目与任务列表）",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "configs/seed.yaml", "种子数据文件")
	rootCmd.AddCommand(seedCmd)
}

// seedData 种子文件格式
type seedData struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Provider   string  `yaml:"provider"`
	ExternalID string  `yaml:"external_id"`
	Username   string  `yaml:"username"`
	Email      string  `yaml:"email"`
	FullName   string  `yaml:"full_name"`
	AvatarURL  *string `yaml:"avatar_url"`
}

func loadSeed(path string) (*seedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取种子文件失败: %w", err)
	}
	var data seedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析种子文件失败: %w", err)
	}
	for i, u := range data.Users {
		if u.ExternalID == "" || u.Username == "" {
			return nil, fmt.Errorf("第 %d 个用户缺少 external_id 或 username", i+1)
		}
		if u.Provider == "" {
			data.Users[i].Provider = constants.ProviderSeed
		}
	}
	return &data, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	data, err := loadSeed(seedFile)
	if err != nil {
		return err
	}

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

	ctx := context.Background()
	for _, u := range data.Users {
		user, err := services.Users.SignIn(ctx, &dto.SignInRequest{
			Provider:   u.Provider,
			ExternalID: u.ExternalID,
			Username:   u.Username,
			Email:      u.Email,
			FullName:   u.FullName,
			AvatarURL:  u.AvatarURL,
		})
		if err != nil && !errors.Is(err, pkgErrors.ErrCascadeFailed) {
			return fmt.Errorf("导入用户 %s 失败: %w", u.Username, err)
		}
		if err != nil {
			// 缺失的默认实体由 reconcile 补齐
			logger.Warn("用户默认实体创建失败", zap.String("username", u.Username), zap.Error(err))
		}
		logger.Info("用户已导入", zap.String("user_id", user.ID), zap.String("username", user.Username))
	}
	return nil
}
