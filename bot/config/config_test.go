package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	coredatabase "github.com/mayak/orderbot/core/database"
)

func writeConfig(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t,
		"telegram:",
		"  token: tok",
		"  operator_chat_id: -100",
		"database:",
		"  driver: sqlite",
		"  path: /tmp/orderbot.db",
		"state:",
		"  backend: Redis",
		"  ttl_seconds: 3600",
		"redis:",
		"  addr: localhost:6379",
		"catalog:",
		"  seed_file: ' catalog.yaml '",
	)
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CoreConfig().Telegram.Token != "tok" || cfg.Telegram.OperatorChatID != -100 {
		t.Fatalf("telegram = %+v", cfg.Telegram)
	}
	if cfg.Database.Driver != coredatabase.DriverSQLite || cfg.Database.MaxConnections != 1 {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.State.Backend != StateRedis || cfg.State.TTL().Hours() != 1 || cfg.Redis.DB != 2 {
		t.Fatalf("state = %+v redis = %+v", cfg.State, cfg.Redis)
	}
	if cfg.Catalog.SeedFile != "catalog.yaml" {
		t.Fatalf("seed file = %q", cfg.Catalog.SeedFile)
	}
}

func TestNormalizeDefaultsToMemoryState(t *testing.T) {
	cfg := Config{}
	cfg.Telegram.Token = "tok"
	cfg.Database = coredatabase.Config{Driver: "sqlite3", Path: "bot.db"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.State.Backend != StateMemory {
		t.Fatalf("backend = %q", cfg.State.Backend)
	}
}

func TestNormalizeRejects(t *testing.T) {
	base := func() Config {
		cfg := Config{}
		cfg.Telegram.Token = "tok"
		cfg.Database = coredatabase.Config{Driver: "sqlite3", Path: "bot.db"}
		return cfg
	}
	cases := map[string]func(*Config){
		"redis without addr": func(c *Config) { c.State.Backend = StateRedis },
		"unknown backend":    func(c *Config) { c.State.Backend = "etcd" },
		"negative ttl":       func(c *Config) { c.State.TTLSeconds = -1 },
		"bad database":       func(c *Config) { c.Database = coredatabase.Config{Driver: "mysql"} },
		"missing token":      func(c *Config) { c.Telegram.Token = "" },
	}
	for name, mutate := range cases {
		cfg := base()
		mutate(&cfg)
		if err := cfg.Normalize(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
