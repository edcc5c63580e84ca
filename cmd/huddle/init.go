package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initTransport string

func init() {
	initCmd.Flags().StringVar(&initTransport, "transport", "sim", "event transport: sim or socket")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [base-url]",
	Short: "Create ~/.huddle/config.toml",
	Long:  "Initialize the Huddle CLI configuration. The transport is selected here, once, and used by every later command.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if initTransport != "sim" && initTransport != "socket" {
			return fmt.Errorf("transport must be \"sim\" or \"socket\"")
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if len(args) == 1 {
			cfg.Default.BaseURL = args[0]
		}
		cfg.Default.Transport = initTransport

		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		path, _ := configPath()
		fmt.Printf("Configuration saved to %s (transport: %s)\n", path, initTransport)
		return nil
	},
}
