package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("CTFSENSEI_API_URL", "http://10.0.0.5:5000")
	t.Setenv("CTFSENSEI_USERNAME", "trinity")
	t.Setenv("CTFSENSEI_TIMEOUT", "90s")
	t.Setenv("CTFSENSEI_LOG_LEVEL", "debug")

	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:5000" || cfg.Username != "trinity" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected env config: %+v", cfg)
	}
	if cfg.Timeout != 90*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout)
	}
}

func TestLoadEnvInvalidDuration(t *testing.T) {
	t.Setenv("CTFSENSEI_TIMEOUT", "soon")
	if _, err := LoadEnv(); err == nil {
		t.Fatalf("expected parse error for invalid duration")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		t.Fatalf("missing .env should not fail: %v", err)
	}

	path := filepath.Join(dir, ".env")
	content := "CTFSENSEI_USERNAME=from-dotenv\nCTFSENSEI_LOG_LEVEL=warn\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("CTFSENSEI_USERNAME", "from-shell")
	t.Setenv("CTFSENSEI_LOG_LEVEL", "")
	if err := os.Unsetenv("CTFSENSEI_LOG_LEVEL"); err != nil {
		t.Fatalf("unset: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load .env: %v", err)
	}
	if got := os.Getenv("CTFSENSEI_USERNAME"); got != "from-shell" {
		t.Fatalf("shell value should win, got %q", got)
	}
	if got := os.Getenv("CTFSENSEI_LOG_LEVEL"); got != "warn" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}
