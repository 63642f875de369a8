package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Client.APIURL != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigClientSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[client]
api-url = "http://ctf.local:5000"
username = "neo"
timeout = "15s"
# log-level = "debug"
success-marker = "FLAG OK"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	c := cfg.Client
	if c.APIURL == nil || *c.APIURL != "http://ctf.local:5000" {
		t.Fatalf("unexpected api-url: %v", c.APIURL)
	}
	if c.Username == nil || *c.Username != "neo" {
		t.Fatalf("unexpected username: %v", c.Username)
	}
	if c.Timeout == nil || *c.Timeout != "15s" {
		t.Fatalf("unexpected timeout: %v", c.Timeout)
	}
	if c.LogLevel != nil {
		t.Fatalf("commented value should stay unset, got %q", *c.LogLevel)
	}
	if c.SuccessMarker == nil || *c.SuccessMarker != "FLAG OK" {
		t.Fatalf("unexpected success-marker: %v", c.SuccessMarker)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[client\napi-url = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	if got, want := DefaultConfigPath(), filepath.Join(dir, "config", "ctfsensei", "config.toml"); got != want {
		t.Fatalf("config path %q, want %q", got, want)
	}
	if got, want := DefaultDBPath(), filepath.Join(dir, "data", "ctfsensei", "ctfsensei.db"); got != want {
		t.Fatalf("db path %q, want %q", got, want)
	}
	if got, want := DefaultLogPath(), filepath.Join(dir, "state", "ctfsensei", "ctfsensei.log"); got != want {
		t.Fatalf("log path %q, want %q", got, want)
	}
}
