package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadParsesAllSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: "9090"
redis:
  addr: localhost:6379
  db: 2
postgres:
  url: postgres://quiz@localhost/quizdb
sqlite:
  path: data/buzz.db
quiz:
  ttl: 5m
device:
  vendor_id: 0x054c
  product_id: 0x1000
  debug: true
mapping:
  file: data/mapping.json
game:
  get_ready: 3s
  answer_tick: 1s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("unexpected server/redis config %+v", cfg)
	}
	if cfg.Device.VendorID != 0x054c || cfg.Device.ProductID != 0x1000 || !cfg.Device.Debug {
		t.Fatalf("unexpected device config %+v", cfg.Device)
	}
	if cfg.Mapping.File != "data/mapping.json" || cfg.SQLite.Path != "data/buzz.db" {
		t.Fatalf("unexpected local storage config %+v %+v", cfg.Mapping, cfg.SQLite)
	}
	if got := TTLDuration(cfg.Game.GetReady, time.Second); got != 3*time.Second {
		t.Fatalf("unexpected get ready %v", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Redis.Addr != "" || cfg.Postgres.URL != "" {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("nonsense", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for invalid, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
