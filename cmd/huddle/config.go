package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Huddle configuration",
	Long:  "View or modify the Huddle CLI configuration stored in ~/.huddle/config.toml.",
}

// maskToken hides all but a short prefix of a stored token.
func maskToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 6 {
		return "******"
	}
	return token[:6] + "…"
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Println("[default]")
		fmt.Printf("  base_url  = %s\n", valueOrDefault(cfg.Default.BaseURL, "(default)"))
		fmt.Printf("  transport = %s\n", valueOrDefault(cfg.Default.Transport, "sim"))

		fmt.Println("[auth]")
		fmt.Printf("  user_id      = %s\n", valueOrDefault(cfg.Auth.UserID, "(not logged in)"))
		fmt.Printf("  display_name = %s\n", valueOrDefault(cfg.Auth.DisplayName, "-"))
		fmt.Printf("  phone        = %s\n", valueOrDefault(cfg.Auth.Phone, "-"))
		fmt.Printf("  token        = %s\n", maskToken(cfg.Auth.Token))

		fmt.Println("[storage]")
		fmt.Printf("  dir = %s\n", valueOrDefault(cfg.Storage.Dir, "~/.huddle/store"))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: "Set a configuration value using dot notation.\n" +
		"Examples:\n" +
		"  huddle config set default.transport socket\n" +
		"  huddle config set default.base_url https://huddle.example.com\n" +
		"  huddle config set storage.dir /var/lib/huddle",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := setConfigValue(cfg, key, value); err != nil {
			return err
		}
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}
