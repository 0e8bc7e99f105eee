package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_init.up.sql", "000002_orders.up.sql", "000003_idx.up.sql"}
	got := selectApplied(files, 1, 3)
	if len(got) != 2 || got[0] != "000002_orders.up.sql" {
		t.Fatalf("selectApplied = %v", got)
	}
	if got := selectApplied(files, 3, 3); len(got) != 0 {
		t.Fatalf("nothing new expected, got %v", got)
	}
	if v := parseVersion("garbage.sql"); v != 0 {
		t.Fatalf("parseVersion = %d", v)
	}
}

func TestListMigrationFilesOnlyUp(t *testing.T) {
	src := fstest.MapFS{
		"000002_b.up.sql":   {Data: []byte("")},
		"000001_a.up.sql":   {Data: []byte("")},
		"000001_a.down.sql": {Data: []byte("")},
		"migrations.go":     {Data: []byte("")},
	}
	got := listMigrationFiles(src)
	if strings.Join(got, ",") != "000001_a.up.sql,000002_b.up.sql" {
		t.Fatalf("files = %v", got)
	}
}

func TestConfigNormalize(t *testing.T) {
	pg := Config{Host: "db", Name: "orders"}
	if err := pg.Normalize(); err != nil {
		t.Fatalf("normalize postgres: %v", err)
	}
	if pg.Driver != DriverPostgres || pg.Port != "5432" || pg.MaxConnections != 10 {
		t.Fatalf("postgres defaults = %+v", pg)
	}
	if !strings.HasPrefix(pg.MigrateURL(), "postgres://") {
		t.Fatalf("migrate url = %s", pg.MigrateURL())
	}

	lite := Config{Driver: "sqlite", Path: "bot.db", MaxConnections: 8}
	if err := lite.Normalize(); err != nil {
		t.Fatalf("normalize sqlite: %v", err)
	}
	if lite.MaxConnections != 1 || lite.DSN() != "bot.db?_foreign_keys=on" {
		t.Fatalf("sqlite config = %+v dsn=%s", lite, lite.DSN())
	}

	for _, bad := range []Config{{Driver: "mysql"}, {Driver: "sqlite3"}, {Driver: "postgres"}} {
		bad := bad
		if err := bad.Normalize(); err == nil {
			t.Fatalf("expected error for %+v", bad)
		}
	}
}

func TestRunMigrationsSQLite(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "bot.db")}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	src := fstest.MapFS{
		"000001_init.up.sql":   {Data: []byte("CREATE TABLE demo (id INTEGER PRIMARY KEY);")},
		"000001_init.down.sql": {Data: []byte("DROP TABLE demo;")},
	}
	for i := 0; i < 2; i++ {
		if err := RunMigrations(context.Background(), cfg, src); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec("INSERT INTO demo (id) VALUES (1)"); err != nil {
		t.Fatalf("insert: %v", err)
	}
}
