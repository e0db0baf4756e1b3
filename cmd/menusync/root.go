package main

import (
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "menusync",
	Short:        "Keep a menu catalog in sync with its spreadsheet",
	Long:         `Reconcile the persisted Menu/Submenu/Dish catalog against an external table and keep the cached views coherent.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")
	rootCmd.AddCommand(syncCmd, runCmd, dumpCmd)
}
