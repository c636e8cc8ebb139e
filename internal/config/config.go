// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Config holds the application configuration loaded from environment variables.
// It is built once at startup and passed to the adapters that need it.
type Config struct {
	OAuthURL          string `env:"OAUTH_URL,required,notEmpty"`
	OAuthClientID     string `env:"OAUTH_CLIENT_ID,required,notEmpty"`
	OAuthClientSecret string `env:"OAUTH_CLIENT_SECRET,required,notEmpty"`
	OAuthRedirectURL  string `env:"OAUTH_REDIRECT_URL"`
	SessionInfoURL    string `env:"ONSHAPE_SESSION_INFO_URL" envDefault:"https://cad.onshape.com/api/users/sessioninfo"`
	ListenAddr        string `env:"ONSHAPEAPP_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	DBPath            string `env:"ONSHAPEAPP_DB_PATH" envDefault:"onshapeapp.db"`
	SecretKeyHex      string `env:"ONSHAPEAPP_SECRET_KEY"`
	LogLevel          string `env:"ONSHAPEAPP_LOG_LEVEL" envDefault:"info"`

	// SecretKey is the decoded AES-256 key for tokens at rest; nil when
	// ONSHAPEAPP_SECRET_KEY is unset.
	SecretKey []byte
}

// Load reads configuration from environment variables and returns a validated Config.
// OAUTH_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required. ONSHAPEAPP_SECRET_KEY,
// when set, must be 64 hex characters.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.OAuthURL = strings.TrimRight(cfg.OAuthURL, "/")

	if cfg.SecretKeyHex != "" {
		key, err := hex.DecodeString(cfg.SecretKeyHex)
		if err != nil {
			return nil, fmt.Errorf("ONSHAPEAPP_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("ONSHAPEAPP_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.SecretKey = key
	}

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("ONSHAPEAPP_LOG_LEVEL has invalid level %q: %w", s, err)
	}
	return level, nil
}
