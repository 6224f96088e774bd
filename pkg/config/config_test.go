package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Lease.TTL != "30m" {
		t.Errorf("expected 30m lease ttl, got %s", cfg.Lease.TTL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info level, got %s", cfg.Logging.Level)
	}
	if !cfg.History.Enabled {
		t.Error("expected history enabled by default")
	}
}

func TestLoad_NotExists(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config, got nil")
	}
	// Should return default config
	if cfg.Lease.TTL != "30m" {
		t.Errorf("expected default ttl, got %s", cfg.Lease.TTL)
	}
}

func TestLoad_Exists(t *testing.T) {
	tmpDir := t.TempDir()
	dotDir := filepath.Join(tmpDir, ".baton")
	if err := os.MkdirAll(dotDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "lease:\n  ttl: 10m\n  heartbeat_interval: 2m\nlogging:\n  level: debug\n"
	if err := os.WriteFile(filepath.Join(dotDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Lease.TTL != "10m" {
		t.Errorf("expected 10m ttl, got %s", cfg.Lease.TTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoad_Malformed(t *testing.T) {
	tmpDir := t.TempDir()
	dotDir := filepath.Join(tmpDir, ".baton")
	if err := os.MkdirAll(dotDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dotDir, "config.yaml"), []byte("{not yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("expected parse error for malformed config")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Default()
	cfg.Lease.TTL = "45m"

	if err := Save(tmpDir, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Lease.TTL != "45m" {
		t.Errorf("expected 45m ttl after round trip, got %s", loaded.Lease.TTL)
	}
}

func TestLockPolicy(t *testing.T) {
	cfg := Default()
	cfg.Lease.TTL = "15m"
	cfg.Lease.HeartbeatInterval = "4m"

	policy := cfg.LockPolicy()
	if policy.TTL != 15*time.Minute {
		t.Errorf("expected 15m ttl, got %s", policy.TTL)
	}
	if policy.Interval() != 4*time.Minute {
		t.Errorf("expected 4m interval, got %s", policy.Interval())
	}
}

func TestLockPolicy_BadDuration(t *testing.T) {
	cfg := Default()
	cfg.Lease.TTL = "not-a-duration"

	policy := cfg.LockPolicy()
	if policy.TTL != 30*time.Minute {
		t.Errorf("expected default ttl fallback, got %s", policy.TTL)
	}
	// interval defaults to ttl/3
	if policy.Interval() != 10*time.Minute {
		t.Errorf("expected ttl/3 interval, got %s", policy.Interval())
	}
}
