package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Data source providers.
const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
	ProviderMock  = "mock"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
		Mode string `yaml:"mode"` // gin mode: debug, release, test
	} `yaml:"server"`
	Log        LogConfig `yaml:"log"`
	DataSource struct {
		Provider      string        `yaml:"provider"`
		BaseURL       string        `yaml:"base_url"`
		APIKey        string        `yaml:"api_key"`
		Proxy         string        `yaml:"proxy"`
		Timeout       time.Duration `yaml:"timeout"`
		LookbackYears int           `yaml:"lookback_years"`
	} `yaml:"data_source"`
	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`
	Media struct {
		Root      string        `yaml:"root"`
		BaseURL   string        `yaml:"base_url"`
		Retention time.Duration `yaml:"retention"`
		SweepCron string        `yaml:"sweep_cron"`
	} `yaml:"media"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken   string `yaml:"bot_token"`
		ChatID     string `yaml:"chat_id"`
		DigestCron string `yaml:"digest_cron"`
	} `yaml:"telegram"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Encoding    string `yaml:"encoding"` // json or console
	Development bool   `yaml:"development"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DATA_SOURCE_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.DataSource.Proxy = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("MEDIA_ROOT"); v != "" {
		c.Media.Root = v
	}
	if v := os.Getenv("MEDIA_BASE_URL"); v != "" {
		c.Media.BaseURL = v
	}
	if v := os.Getenv("MEDIA_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse MEDIA_RETENTION: %w", err)
		}
		c.Media.Retention = d
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "json"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = ProviderREST
		}
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.DataSource.LookbackYears == 0 {
		c.DataSource.LookbackYears = 10
	}
	if c.Model.Path == "" {
		c.Model.Path = "stock_prediction_model.json"
	}
	if c.Media.Root == "" {
		c.Media.Root = "media"
	}
	if c.Media.BaseURL == "" {
		c.Media.BaseURL = "/media/"
	}
	if !strings.HasSuffix(c.Media.BaseURL, "/") {
		c.Media.BaseURL += "/"
	}
	if c.Media.SweepCron == "" {
		c.Media.SweepCron = "0 0 3 * * *"
	}
	if c.Telegram.DigestCron == "" {
		c.Telegram.DigestCron = "0 0 18 * * *"
	}
}

// TelegramEnabled reports whether the run digest bot is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for provider %q", ProviderREST)
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.LookbackYears <= 0 {
		return fmt.Errorf("data_source.lookback_years must be positive")
	}
	if c.DataSource.Timeout < 0 {
		return fmt.Errorf("data_source.timeout must not be negative")
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	if c.Media.Root == "" {
		return fmt.Errorf("media.root is required")
	}
	if c.Media.Retention < 0 {
		return fmt.Errorf("media.retention must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
