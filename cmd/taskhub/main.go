package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"taskhub/internal/pkg/config"
	"taskhub/internal/pkg/logger"
)

const appName = "taskhub"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "taskhub 多租户任务协作服务",
	Long:  "taskhub 提供团队、项目、任务列表与任务的多租户管理 API，并负责默认实体的级联创建。",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env 不存在时忽略
		_ = godotenv.Load()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认: configs/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 加载配置并初始化日志
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败(%s): %w", configPath, err)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	logger.Info(fmt.Sprintf("Load config file: %s of %s", configPath, getConfigSource()))

	return cfg, nil
}

// getConfigPath 获取配置文件路径
// 优先级: 命令行参数 > 环境变量 > 默认路径
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		return envConfig
	}
	return "configs/config.yaml"
}

func getConfigSource() string {
	if cfgFile != "" {
		return "命令行参数"
	}
	if os.Getenv("CONFIG_FILE") != "" {
		return "环境变量"
	}
	return "默认配置"
}
