package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	huddle "github.com/huddle-chat/huddle/sdk/golang"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(logoutCmd)
}

// printFieldErrors renders inline validation failures the way the app
// surfaces them next to form fields.
func printFieldErrors(errs []huddle.FieldError) error {
	for _, fe := range errs {
		fmt.Printf("  %s: %s\n", fe.Field, fe.Message)
	}
	return fmt.Errorf("validation failed")
}

var loginCmd = &cobra.Command{
	Use:   "login <phone> <display-name>",
	Short: "Request a one-time login code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		phone, displayName := args[0], args[1]

		if errs := huddle.ValidateCredentials(phone, displayName); len(errs) > 0 {
			return printFieldErrors(errs)
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		result, err := getAuthClient(cfg).Login(ctx, phone, displayName)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if !result.OK {
			// Remote rejection resolves as a flagged result, not an
			// HTTP error; translate it for display here.
			if result.Error != nil {
				return fmt.Errorf("login rejected: %s", result.Error.Message)
			}
			return fmt.Errorf("login rejected")
		}

		cfg.Auth.Phone = phone
		cfg.Auth.DisplayName = displayName
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Code sent to %s. Run 'huddle verify %s <code>' to finish.\n", phone, phone)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <phone> <code>",
	Short: "Verify a one-time code and store the session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		phone, code := args[0], args[1]

		if errs := huddle.ValidateOTP(code); len(errs) > 0 {
			return printFieldErrors(errs)
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		result, err := getAuthClient(cfg).VerifyOTP(ctx, phone, code)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if !result.OK {
			if result.Error != nil {
				return fmt.Errorf("verification rejected: %s", result.Error.Message)
			}
			return fmt.Errorf("verification rejected")
		}

		var data huddle.LoginData
		if err := json.Unmarshal(result.Data, &data); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		cfg.Auth.Token = data.Token
		cfg.Auth.UserID = data.User.ID
		cfg.Auth.DisplayName = data.User.DisplayName
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		sessions, err := getSessionStore(cfg)
		if err != nil {
			return err
		}
		if err := sessions.Save(huddle.Session{
			User:                   data.User,
			IsAuthenticated:        true,
			HasCompletedOnboarding: true,
		}); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}

		fmt.Printf("Logged in as %s (%s)\n", data.User.DisplayName, data.User.ID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		sessions, err := getSessionStore(cfg)
		if err != nil {
			return err
		}
		if err := sessions.Clear(); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}

		cfg.Auth.Token = ""
		cfg.Auth.UserID = ""
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Println("Logged out.")
		return nil
	},
}
