package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"admin-backend/internal/domain/auth"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存 HTTP API 及外部相依的執行設定。
type Config struct {
	HTTP HTTPConfig `yaml:"http"`
	DB   DBConfig   `yaml:"db"`
	Auth AuthConfig `yaml:"auth"`
	Log  LogConfig  `yaml:"log"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type AuthConfig struct {
	Secret                  string `yaml:"secret"`
	SessionDurationMinutes  int    `yaml:"session_duration_minutes"`
	MaxSessionsPerUser      int    `yaml:"max_sessions_per_user"`
	BlacklistRetentionHours int    `yaml:"blacklist_retention_hours"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// LoadFromFile 從 YAML 組態檔載入設定。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

// AuthSettings 將認證區段轉成經過驗證的值物件。
func (c Config) AuthSettings() (auth.Settings, error) {
	return auth.NewSettings(
		c.Auth.Secret,
		c.Auth.SessionDurationMinutes,
		c.Auth.MaxSessionsPerUser,
		c.Auth.BlacklistRetentionHours,
	)
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Auth.SessionDurationMinutes == 0 {
		cfg.Auth.SessionDurationMinutes = 30
	}
	if cfg.Auth.MaxSessionsPerUser == 0 {
		cfg.Auth.MaxSessionsPerUser = 5
	}
	if cfg.Auth.BlacklistRetentionHours == 0 {
		cfg.Auth.BlacklistRetentionHours = 24
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev-secret-change-me-0123456789abcdef"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("AUTH_SECRET"); val != "" {
		cfg.Auth.Secret = val
	}
	if val := os.Getenv("AUTH_SESSION_DURATION_MINUTES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Auth.SessionDurationMinutes = n
		}
	}
	if val := os.Getenv("AUTH_MAX_SESSIONS_PER_USER"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Auth.MaxSessionsPerUser = n
		}
	}
	if val := os.Getenv("AUTH_BLACKLIST_RETENTION_HOURS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Auth.BlacklistRetentionHours = n
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	return cfg
}
