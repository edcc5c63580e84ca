package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current configuration and session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Println("Configuration:")
		fmt.Printf("  Base URL:  %s\n", valueOrDefault(cfg.Default.BaseURL, "(default)"))
		fmt.Printf("  Transport: %s\n", valueOrDefault(cfg.Default.Transport, "sim"))

		fmt.Println()
		fmt.Println("Auth:")
		if cfg.Auth.UserID != "" {
			fmt.Printf("  User:  %s (%s)\n", cfg.Auth.DisplayName, cfg.Auth.UserID)
			fmt.Printf("  Phone: %s\n", valueOrDefault(cfg.Auth.Phone, "(unknown)"))
		} else {
			fmt.Println("  (not logged in)")
		}

		sessions, err := getSessionStore(cfg)
		if err != nil {
			return err
		}
		session, found, err := sessions.Load()
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		fmt.Println()
		fmt.Println("Session store:")
		if !found {
			fmt.Println("  (no persisted session)")
			return nil
		}
		fmt.Printf("  Authenticated: %v\n", session.IsAuthenticated)
		fmt.Printf("  Onboarded:     %v\n", session.HasCompletedOnboarding)
		fmt.Printf("  User:          %s (%s)\n", session.User.DisplayName, session.User.ID)
		return nil
	},
}
