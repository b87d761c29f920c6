package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const appVersion = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s version %s\n", appName, appVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
