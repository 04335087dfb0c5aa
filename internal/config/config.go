package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"AgriValue/internal/analyzer"
	"AgriValue/internal/storage"
)

// Config holds all application configuration.
type Config struct {
	API struct {
		BaseURL     string        `yaml:"base_url"`
		AnalyzePath string        `yaml:"analyze_path"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Storage struct {
		Backend  string `yaml:"backend"`
		Path     string `yaml:"path"`
		ImageDir string `yaml:"image_dir"`
		// KeepImages=false references captured images in place instead of
		// copying them, for platforms without a writable filesystem.
		KeepImages *bool `yaml:"keep_images"`
	} `yaml:"storage"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		RefreshCron  string `yaml:"refresh_cron"`
		RefreshLimit int    `yaml:"refresh_limit"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("AGRIVALUE_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("ANALYZE_PATH"); v != "" {
		cfg.API.AnalyzePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.Backend = storage.BackendSQLite
		cfg.Storage.Path = v
	}
	if v := os.Getenv("IMAGE_DIR"); v != "" {
		cfg.Storage.ImageDir = v
	}
	if v := os.Getenv("KEEP_IMAGES"); v != "" {
		if keep, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.KeepImages = &keep
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}

	// Defaults
	if cfg.API.AnalyzePath == "" {
		cfg.API.AnalyzePath = analyzer.DefaultAnalyzePath
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = analyzer.DefaultTimeout
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = storage.BackendFile
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Backend {
		case storage.BackendSQLite:
			cfg.Storage.Path = "data/agrivalue.db"
		default:
			cfg.Storage.Path = "data"
		}
	}
	if cfg.Storage.ImageDir == "" {
		cfg.Storage.ImageDir = "data/history"
	}
	if cfg.Storage.KeepImages == nil {
		keep := true
		cfg.Storage.KeepImages = &keep
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 0 7 * * 1"
	}
	if cfg.Schedule.RefreshLimit == 0 {
		cfg.Schedule.RefreshLimit = 10
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Storage.Backend {
	case storage.BackendMemory, storage.BackendFile, storage.BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be one of memory, file, sqlite, got %q", c.Storage.Backend)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.Schedule.RefreshLimit < 0 {
		return fmt.Errorf("schedule.refresh_limit must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether refresh reports should be pushed.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// ImagesEnabled reports whether captured images are copied into managed storage.
func (c *Config) ImagesEnabled() bool {
	return c.Storage.KeepImages == nil || *c.Storage.KeepImages
}
