package main

import (
	"fmt"
	"os"
	"path/filepath"

	huddle "github.com/huddle-chat/huddle/sdk/golang"
	"gitlab.com/elixxir/ekv"
)

// getSessionStore opens the local session store under ~/.huddle/store.
func getSessionStore(cfg *Config) (*huddle.SessionStore, error) {
	dir := cfg.Storage.Dir
	if dir == "" {
		base, err := configDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "store")
	}
	password := cfg.Storage.Password
	if password == "" {
		password = "huddle-local"
	}
	fs, err := ekv.NewFilestore(dir, password)
	if err != nil {
		return nil, fmt.Errorf("cannot open session store: %w", err)
	}
	return huddle.NewSessionStore(fs), nil
}

// getAuthClient creates an auth client from the configured base URL.
func getAuthClient(cfg *Config) *huddle.AuthClient {
	var opts []huddle.AuthOption
	if cfg.Default.BaseURL != "" {
		opts = append(opts, huddle.WithBaseURL(cfg.Default.BaseURL))
	}
	c := huddle.NewAuthClient(opts...)
	if cfg.Auth.Token != "" {
		c.SetToken(cfg.Auth.Token)
	}
	return c
}

// currentUser derives the local identity from config, or exits when
// the user has not logged in.
func currentUser(cfg *Config) huddle.User {
	if cfg.Auth.UserID == "" {
		fmt.Fprintln(os.Stderr, "Not logged in. Run 'huddle login <phone> <display-name>' first.")
		os.Exit(1)
	}
	return huddle.User{ID: cfg.Auth.UserID, DisplayName: cfg.Auth.DisplayName}
}

// buildTransport constructs the transport the config selected at init
// time. This is the single place the concrete implementation is
// chosen.
func buildTransport(cfg *Config, self huddle.User, roster []huddle.User, convIDs []string) huddle.Transport {
	if cfg.Default.Transport == "socket" {
		baseURL := cfg.Default.BaseURL
		if baseURL == "" {
			baseURL = huddle.DefaultBaseURL
		}
		return huddle.NewSocketTransport(baseURL, huddle.SocketConfig{Token: cfg.Auth.Token})
	}
	return huddle.NewSimulatedTransport(huddle.SimulatorConfig{
		Users:           roster,
		ConversationIDs: convIDs,
		SelfUser:        self,
	})
}

func valueOrDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
