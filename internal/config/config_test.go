package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("discord_token: file-token\ndatabase_url: postgres://file\ndispatch:\n  bulk_concurrency: 9\n  audit_entry_events: false\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("AUDIT_MAX_AGE_SECONDS", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DiscordToken != "file-token" {
		t.Fatalf("expected file token, got %q", cfg.DiscordToken)
	}
	if cfg.DatabaseURL != "postgres://env" {
		t.Fatalf("expected env database url, got %q", cfg.DatabaseURL)
	}
	if cfg.Dispatch.BulkConcurrency != 9 {
		t.Fatalf("expected bulk concurrency 9, got %d", cfg.Dispatch.BulkConcurrency)
	}
	if cfg.Dispatch.AuditEntryEvents {
		t.Fatalf("expected audit entry events disabled")
	}
	if cfg.Dispatch.AuditMaxAgeSeconds != 45 {
		t.Fatalf("expected audit max age 45, got %d", cfg.Dispatch.AuditMaxAgeSeconds)
	}
	if cfg.Dispatch.TimeoutSeconds != 30 {
		t.Fatalf("expected default timeout, got %d", cfg.Dispatch.TimeoutSeconds)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestNormalizeRepairsInvalidValues(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DISPATCH_BULK_CONCURRENCY", "-3")
	t.Setenv("DISPATCH_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Dispatch.BulkConcurrency != 4 {
		t.Fatalf("expected default bulk concurrency, got %d", cfg.Dispatch.BulkConcurrency)
	}
	if cfg.Dispatch.TimeoutSeconds != 30 {
		t.Fatalf("expected default timeout, got %d", cfg.Dispatch.TimeoutSeconds)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing token error")
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("warn") != zapcore.WarnLevel {
		t.Fatalf("expected warn level")
	}
	if parseLevel("verbose") != zapcore.InfoLevel {
		t.Fatalf("expected info fallback")
	}
}
