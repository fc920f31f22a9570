package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadReadsYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
storage:
  driver: sqlite
  sqlite_path: /tmp/lq.db
offline:
  cache_ttl: 48h
  quota_mb: 10
connectivity:
  initial_online: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.StorageDriver() != StorageSQLite || cfg.Storage.SQLitePath != "/tmp/lq.db" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if got := TTLDuration(cfg.Offline.CacheTTL, time.Hour); got != 48*time.Hour {
		t.Fatalf("expected 48h cache ttl, got %v", got)
	}
	if cfg.Offline.QuotaMB != 10 {
		t.Fatalf("expected quota 10, got %v", cfg.Offline.QuotaMB)
	}
	if cfg.Online() {
		t.Fatalf("expected initial offline state")
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
redis:
  addr: "localhost:6379"
telemetry:
  service_name: from-yaml
`)
	t.Setenv("LEARNQUEST_REDIS_ADDR", "redis:6380")
	t.Setenv("LEARNQUEST_OFFLINE_QUOTA_MB", "2.5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("expected env redis addr, got %q", cfg.Redis.Addr)
	}
	if cfg.Offline.QuotaMB != 2.5 {
		t.Fatalf("expected env quota 2.5, got %v", cfg.Offline.QuotaMB)
	}
	if cfg.Telemetry.ServiceName != "from-yaml" {
		t.Fatalf("expected yaml value to survive, got %q", cfg.Telemetry.ServiceName)
	}
	if cfg.StorageDriver() != StorageRedis {
		t.Fatalf("expected redis driver when an address is set, got %q", cfg.StorageDriver())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageDriver() != StorageMemory {
		t.Fatalf("expected memory driver, got %q", cfg.StorageDriver())
	}
	if !cfg.Online() {
		t.Fatalf("expected online by default")
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("LEARNQUEST_REDIS_DB", "not-a-number")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("garbage", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
