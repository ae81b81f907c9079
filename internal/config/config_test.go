package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if err == nil {
		t.Fatal("an explicitly named missing file must error")
	}

	cfg, err = Load(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL == "" || cfg.StoragePath == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("timeout = %v", cfg.RequestTimeout)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api_base_url: https://care.example.com/api/v1
log_level: debug
rate_limit_rps: 5
messaging:
  project_id: demo-project
  vapid_key: vapid-123
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "https://care.example.com/api/v1" {
		t.Fatalf("base url = %q", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "debug" || cfg.RateLimitRPS != 5 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Messaging.ProjectID != "demo-project" || cfg.Messaging.VAPIDKey != "vapid-123" {
		t.Fatalf("messaging = %+v", cfg.Messaging)
	}
	// Unset fields still get defaults.
	if cfg.RateLimitBurst != 10 {
		t.Fatalf("burst = %d", cfg.RateLimitBurst)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_base_url: https://file.example.com\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CARELINK_API_URL", "https://env.example.com")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "https://env.example.com" {
		t.Fatalf("env override lost: %q", cfg.APIBaseURL)
	}
}
