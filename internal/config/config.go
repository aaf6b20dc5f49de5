// Package config provides configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// defaultDataDir returns the default directory for storing bridge data.
// Uses ~/.tgcord/ so data is in a fixed location regardless of CWD.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".tgcord")
}

// Config holds all configuration for the bridge.
type Config struct {
	// Telegram
	TelegramAPIID       int32  `mapstructure:"telegram_api_id"`
	TelegramAPIHash     string `mapstructure:"telegram_api_hash"`
	TelegramChatID      int64  `mapstructure:"telegram_chat_id"`
	TelegramDatabaseDir string `mapstructure:"telegram_database_dir"`
	TelegramFilesDir    string `mapstructure:"telegram_files_dir"`

	// tdjson gateway
	GatewayURL     string        `mapstructure:"gateway_url"`
	ReceiveTimeout time.Duration `mapstructure:"receive_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`

	// Discord
	DiscordToken     string `mapstructure:"discord_token"`
	DiscordChannelID string `mapstructure:"discord_channel_id"`
	WebhookURL       string `mapstructure:"webhook_url"`

	// Media
	MediaBaseURL   string `mapstructure:"media_base_url"`
	FileServerAddr string `mapstructure:"file_server_addr"`

	// Store
	StorePath string `mapstructure:"store_path"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Debug     bool   `mapstructure:"debug"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		TelegramDatabaseDir: filepath.Join(dataDir, "tdlib"),
		TelegramFilesDir:    filepath.Join(dataDir, "files"),
		GatewayURL:          "ws://127.0.0.1:9009/updates",
		ReceiveTimeout:      1 * time.Second,
		PollInterval:        100 * time.Millisecond,
		MediaBaseURL:        "http://127.0.0.1:8089",
		FileServerAddr:      ":8089",
		StorePath:           filepath.Join(dataDir, "bridge.db"),
		LogLevel:            "info",
		LogFormat:           "json",
	}
}

// LoadConfig loads configuration from file, environment, and defaults.
// Priority: CLI flags > Environment > Config file > Defaults
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("telegram_database_dir", defaults.TelegramDatabaseDir)
	v.SetDefault("telegram_files_dir", defaults.TelegramFilesDir)
	v.SetDefault("gateway_url", defaults.GatewayURL)
	v.SetDefault("receive_timeout", defaults.ReceiveTimeout)
	v.SetDefault("poll_interval", defaults.PollInterval)
	v.SetDefault("media_base_url", defaults.MediaBaseURL)
	v.SetDefault("file_server_addr", defaults.FileServerAddr)
	v.SetDefault("store_path", defaults.StorePath)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("debug", false)

	// Environment variables with TGCORD_ prefix
	v.SetEnvPrefix("TGCORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Ignore if the default config.yaml simply doesn't exist — use built-in defaults.
			// Only fail if the user explicitly provided a path that can't be read.
			isNotFound := errors.Is(err, os.ErrNotExist)
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotFound {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TelegramAPIID == 0 {
		return fmt.Errorf("telegram_api_id is required")
	}
	if c.TelegramAPIHash == "" {
		return fmt.Errorf("telegram_api_hash is required")
	}
	if c.TelegramChatID == 0 {
		return fmt.Errorf("telegram_chat_id is required")
	}
	if c.DiscordToken == "" {
		return fmt.Errorf("discord_token is required")
	}
	if c.DiscordChannelID == "" {
		return fmt.Errorf("discord_channel_id is required")
	}
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook_url is required")
	}
	if !strings.HasPrefix(c.GatewayURL, "ws://") && !strings.HasPrefix(c.GatewayURL, "wss://") {
		return fmt.Errorf("invalid gateway_url: %s (must be a ws:// or wss:// URL)", c.GatewayURL)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.ReceiveTimeout <= 0 {
		return fmt.Errorf("receive timeout must be positive")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must be non-negative")
	}

	return nil
}
