// Package config loads client configuration from an optional YAML file with
// environment overrides. A .env file in the working directory is honored for
// local development.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Messaging carries the push-messaging project credentials.
type Messaging struct {
	ProjectID string `yaml:"project_id" env:"CARELINK_FCM_PROJECT_ID"`
	AppID     string `yaml:"app_id" env:"CARELINK_FCM_APP_ID"`
	APIKey    string `yaml:"api_key" env:"CARELINK_FCM_API_KEY"`
	SenderID  string `yaml:"sender_id" env:"CARELINK_FCM_SENDER_ID"`
	VAPIDKey  string `yaml:"vapid_key" env:"CARELINK_FCM_VAPID_KEY"`
}

// Config is the full client configuration.
type Config struct {
	APIBaseURL     string        `yaml:"api_base_url" env:"CARELINK_API_URL"`
	StoragePath    string        `yaml:"storage_path" env:"CARELINK_STORAGE_PATH"`
	LogLevel       string        `yaml:"log_level" env:"CARELINK_LOG_LEVEL"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"CARELINK_REQUEST_TIMEOUT"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env:"CARELINK_RATE_LIMIT_RPS"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env:"CARELINK_RATE_LIMIT_BURST"`
	Messaging      Messaging     `yaml:"messaging"`
}

// DefaultPath is where Load looks for the config file when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "carelink", "config.yaml")
}

// Load reads the YAML file (if present), applies environment overrides, and
// fills in defaults. path == "" means the per-user default location.
func Load(ctx context.Context, path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config

	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// No config file is fine; env and defaults carry it.
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "http://localhost:8081/api/v1"
	}
	if c.StoragePath == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.StoragePath = filepath.Join(dir, "carelink", "session.json")
		} else {
			c.StoragePath = ".carelink-session.json"
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.RateLimitRPS <= 0 {
		c.RateLimitRPS = 20
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 10
	}
}
