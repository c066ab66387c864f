// Package config loads bridge configuration from the environment and an
// optional TOML file. Environment variables always win over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variable names recognised by the bridge.
const (
	EnvClientID       = "OUTLOOK_CLIENT_ID"
	EnvClientSecret   = "OUTLOOK_CLIENT_SECRET"
	EnvTenantID       = "OUTLOOK_TENANT_ID"
	EnvRedirectURI    = "OUTLOOK_REDIRECT_URI"
	EnvScopes         = "OUTLOOK_SCOPES"
	EnvTokenStorePath = "OUTLOOK_TOKEN_STORE_PATH"
	EnvTestMode       = "OUTLOOK_TEST_MODE"
)

// DefaultRedirectURI is where the local callback server listens during login.
const DefaultRedirectURI = "http://localhost:3333/auth/callback"

// defaultScopes are requested on every authorization.
// offline_access is required for refresh tokens.
var defaultScopes = []string{
	"openid",
	"offline_access",
	"User.Read",
	"Mail.Read",
	"Mail.ReadWrite",
	"Mail.Send",
	"Calendars.ReadWrite",
	"MailboxSettings.ReadWrite",
}

// Config holds everything the bridge needs to talk to the Microsoft
// identity platform and Microsoft Graph.
type Config struct {
	ClientID       string
	ClientSecret   string
	TenantID       string
	RedirectURI    string
	Scopes         []string
	TokenStorePath string
	TestMode       bool
}

// fileConfig mirrors the optional ~/.outlook-bridge/config.toml document.
type fileConfig struct {
	ClientID       string   `toml:"client_id"`
	ClientSecret   string   `toml:"client_secret"`
	TenantID       string   `toml:"tenant_id"`
	RedirectURI    string   `toml:"redirect_uri"`
	Scopes         []string `toml:"scopes"`
	TokenStorePath string   `toml:"token_store_path"`
}

// Load assembles configuration from defaults, the optional config file and
// the environment, in that order. A .env file in the working directory is
// honoured when present.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		TenantID:    "common",
		RedirectURI: DefaultRedirectURI,
		Scopes:      defaultScopes,
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.TokenStorePath = filepath.Join(home, ".outlook-bridge", "tokens.json")

	if err := applyFile(cfg, filepath.Join(home, ".outlook-bridge", "config.toml")); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	return cfg, nil
}

// applyFile overlays values from the TOML config file if it exists.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.ClientID != "" {
		cfg.ClientID = fc.ClientID
	}
	if fc.ClientSecret != "" {
		cfg.ClientSecret = fc.ClientSecret
	}
	if fc.TenantID != "" {
		cfg.TenantID = fc.TenantID
	}
	if fc.RedirectURI != "" {
		cfg.RedirectURI = fc.RedirectURI
	}
	if len(fc.Scopes) > 0 {
		cfg.Scopes = fc.Scopes
	}
	if fc.TokenStorePath != "" {
		cfg.TokenStorePath = fc.TokenStorePath
	}
	return nil
}

// applyEnv overlays values from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvClientID); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		cfg.ClientSecret = v
	}
	if v := os.Getenv(EnvTenantID); v != "" {
		cfg.TenantID = v
	}
	if v := os.Getenv(EnvRedirectURI); v != "" {
		cfg.RedirectURI = v
	}
	if v := os.Getenv(EnvScopes); v != "" {
		cfg.Scopes = strings.Fields(v)
	}
	if v := os.Getenv(EnvTokenStorePath); v != "" {
		cfg.TokenStorePath = v
	}
	if v := os.Getenv(EnvTestMode); v == "true" || v == "1" {
		cfg.TestMode = true
	}
}

// AuthURL returns the Microsoft identity platform authorization endpoint
// for the configured tenant.
func (c *Config) AuthURL() string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/authorize", c.TenantID)
}

// TokenURL returns the token endpoint for the configured tenant.
func (c *Config) TokenURL() string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", c.TenantID)
}

// ScopeString returns the requested scopes space-joined, as the token
// endpoint expects them.
func (c *Config) ScopeString() string {
	return strings.Join(c.Scopes, " ")
}

// HasClientCredentials reports whether token exchange and refresh are
// possible at all. Without a client ID every token operation fails.
func (c *Config) HasClientCredentials() bool {
	return c.ClientID != ""
}
