// Package config loads finboard.yaml and overlays environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the data directory.
const FileName = "finboard.yaml"

// Config represents the top-level finboard.yaml configuration.
type Config struct {
	User        string        `yaml:"user" env:"FINBOARD_USER"`
	Currency    string        `yaml:"currency" env:"FINBOARD_CURRENCY"`
	Privacy     bool          `yaml:"privacy" env:"FINBOARD_PRIVACY"`
	ColorScheme string        `yaml:"color_scheme" env:"FINBOARD_COLOR_SCHEME"`
	LogLevel    string        `yaml:"log_level" env:"FINBOARD_LOG_LEVEL"`
	Storage     StorageConfig `yaml:"storage"`
	Market      MarketConfig  `yaml:"market"`
	Server      ServerConfig  `yaml:"server"`
	Notify      NotifyConfig  `yaml:"notify"`
	Git         GitConfig     `yaml:"git"`
}

// StorageConfig selects the record store.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"FINBOARD_STORAGE_DRIVER"` // "csv" or "postgres"
	DSN    string `yaml:"dsn,omitempty" env:"FINBOARD_STORAGE_DSN"`
}

// MarketConfig points at a CoinGecko-compatible price API.
type MarketConfig struct {
	BaseURL    string        `yaml:"base_url" env:"FINBOARD_MARKET_BASE_URL"`
	VsCurrency string        `yaml:"vs_currency" env:"FINBOARD_MARKET_VS_CURRENCY"`
	Retries    int           `yaml:"retries" env:"FINBOARD_MARKET_RETRIES"`
	Timeout    time.Duration `yaml:"timeout" env:"FINBOARD_MARKET_TIMEOUT"`
	RedisAddr  string        `yaml:"redis_addr,omitempty" env:"REDIS_ADDR"`
	CacheTTL   time.Duration `yaml:"cache_ttl" env:"FINBOARD_MARKET_CACHE_TTL"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr      string `yaml:"addr" env:"FINBOARD_SERVER_ADDR"`
	JWTSecret string `yaml:"jwt_secret,omitempty" env:"FINBOARD_JWT_SECRET"`
}

// NotifyConfig controls planned-transaction reminders.
type NotifyConfig struct {
	TelegramToken  string `yaml:"telegram_token,omitempty" env:"TG_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id,omitempty" env:"TG_CHAT_ID"`
	RemindDays     int    `yaml:"remind_days" env:"FINBOARD_REMIND_DAYS"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit" env:"FINBOARD_GIT_AUTO_COMMIT"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a finboard.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv loads the optional dotenv files (".env" when none are given) and
// overrides cfg with any FINBOARD_* variables that are set. Unset variables
// leave the YAML values alone.
func ApplyEnv(cfg *Config, dotenv ...string) error {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading dotenv: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default(user string) *Config {
	return &Config{
		User:        user,
		Currency:    "EUR",
		ColorScheme: "auto",
		LogLevel:    "info",
		Storage: StorageConfig{
			Driver: "csv",
		},
		Market: MarketConfig{
			BaseURL:    "https://api.coingecko.com/api/v3",
			VsCurrency: "eur",
			Retries:    3,
			Timeout:    10 * time.Second,
			CacheTTL:   5 * time.Minute,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Notify: NotifyConfig{
			RemindDays: 3,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "finboard",
			AuthorEmail: "finboard@localhost",
		},
	}
}
