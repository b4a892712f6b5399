package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Database.Path != "izposoja.sqlite3" {
		t.Errorf("unexpected default db path %q", cfg.Database.Path)
	}
	if cfg.Jobs.AuditInterval != 24*time.Hour {
		t.Errorf("unexpected default audit interval %v", cfg.Jobs.AuditInterval)
	}
	if cfg.Jobs.ReminderWindow != 72*time.Hour {
		t.Errorf("unexpected default reminder window %v", cfg.Jobs.ReminderWindow)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `server:
  addr: ":9090"
database:
  path: "/tmp/test.sqlite3"
jobs:
  audit_interval: 1h
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %q", cfg.Server.Addr)
	}
	if cfg.Database.Path != "/tmp/test.sqlite3" {
		t.Errorf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Jobs.AuditInterval != time.Hour {
		t.Errorf("unexpected audit interval %v", cfg.Jobs.AuditInterval)
	}
	// Unset keys keep their defaults.
	if cfg.Jobs.ReminderInterval != 12*time.Hour {
		t.Errorf("unexpected reminder interval %v", cfg.Jobs.ReminderInterval)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_ADDR", ":7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected env to win, got %q", cfg.Server.Addr)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JOBS_AUDIT_INTERVAL", "-1h")
	t.Chdir(t.TempDir())

	if _, err := Load(); err == nil {
		t.Error("expected error for negative audit interval")
	}
}
