package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeBase(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadFrom_Defaults(t *testing.T) {
	dir := writeBase(t, "jwt:\n  secret: abc\n")

	cfg, err := LoadFrom(dir, "local")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != ":8000" {
		t.Errorf("expected default port, got %q", cfg.Server.Port)
	}
	if cfg.JWT.AccessTTL != 5*time.Minute || cfg.JWT.RefreshTTL != 24*time.Hour {
		t.Errorf("unexpected token ttls: %v / %v", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	}
	if cfg.Storage.Driver != StorageDriverPostgres {
		t.Errorf("expected postgres driver by default, got %q", cfg.Storage.Driver)
	}
}

func TestLoadFrom_MissingSecret(t *testing.T) {
	dir := writeBase(t, "jwt:\n  secret: ${JWT_SECRET}\n")
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadFrom(dir, "local"); err == nil {
		t.Fatal("expected error for unresolved jwt secret")
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	dir := writeBase(t, "jwt:\n  secret: abc\nstorage:\n  driver: postgres\n")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SERVER_PORT", ":9090")

	cfg, err := LoadFrom(dir, "local")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Storage.Driver != StorageDriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Server.Port != ":9090" {
		t.Errorf("expected port override, got %q", cfg.Server.Port)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := &Config{}
	cfg.JWT.Secret = "x"
	cfg.JWT.AccessTTL = time.Minute
	cfg.JWT.RefreshTTL = time.Hour
	cfg.Storage.Driver = "sqlite"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLoadFrom_OutboxSettings(t *testing.T) {
	dir := writeBase(t, "jwt:\n  secret: abc\nmq:\n  outbox:\n    max_attempts: 3\n    interval: 250ms\n")

	cfg, err := LoadFrom(dir, "local")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.MQ.Outbox.MaxAttempts != 3 {
		t.Errorf("expected max_attempts 3, got %d", cfg.MQ.Outbox.MaxAttempts)
	}
	if cfg.MQ.Outbox.Interval != 250*time.Millisecond {
		t.Errorf("expected interval 250ms, got %v", cfg.MQ.Outbox.Interval)
	}
	if cfg.MQ.Outbox.BatchSize != 100 {
		t.Errorf("expected default batch_size 100, got %d", cfg.MQ.Outbox.BatchSize)
	}
}
