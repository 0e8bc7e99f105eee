package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mayak/orderbot/bot/domain"
	coredatabase "github.com/mayak/orderbot/core/database"
	"github.com/mayak/orderbot/migrations"
)

func loadOrder(ctx context.Context, db *sqlx.DB, id string) (domain.OrderRecord, error) {
	var rec domain.OrderRecord
	err := db.GetContext(ctx, &rec, db.Rebind(
		`SELECT id, chat_id, customer_name, phone, service, product, created_at FROM orders WHERE id = ?`), id)
	return rec, err
}

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	cfg := coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: ":memory:"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	db, err := coredatabase.Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	schema, err := migrations.FS.ReadFile("000001_init.up.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

const sampleCatalog = `
categories:
  - code: c2
    title: Laptops
    position: 2
    products:
      - title: Book 14
  - code: c1
    title: Phones
    position: 1
    products:
      - title: X200
        position: 2
      - title: A10
        position: 1
      - title: "v1.5 Pro"
`

func seedSample(t *testing.T, db *sqlx.DB) {
	t.Helper()
	f, err := ParseCatalog([]byte(sampleCatalog), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	n, err := Upsert(context.Background(), db, f)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if n != 4 {
		t.Fatalf("products written = %d, want 4", n)
	}
}

func TestCatalogRepoOrdering(t *testing.T) {
	db := openDB(t)
	seedSample(t, db)
	repo := NewCatalogRepo(db)
	ctx := context.Background()

	cats, err := repo.ListCategories(ctx, domain.CategoryFilter{})
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 2 || cats[0].Code != "c1" || cats[1].Code != "c2" {
		t.Fatalf("categories = %+v", cats)
	}

	prods, err := repo.ListProducts(ctx, domain.ProductFilter{Category: "c1"})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	var titles []string
	for _, p := range prods {
		if p.Category != "c1" {
			t.Fatalf("product from wrong category: %+v", p)
		}
		titles = append(titles, p.Title)
	}
	if got := strings.Join(titles, ","); got != "A10,X200,v1.5 Pro" {
		t.Fatalf("products = %s", got)
	}
}

func TestCatalogRepoEmptyResultIsNotNil(t *testing.T) {
	db := openDB(t)
	prods, err := NewCatalogRepo(db).ListProducts(context.Background(), domain.ProductFilter{Category: "none"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if prods == nil || len(prods) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", prods)
	}
}

func TestCatalogRepoRetrievalError(t *testing.T) {
	db := openDB(t)
	repo := NewCatalogRepo(db)
	_ = db.Close()

	_, err := repo.ListCategories(context.Background(), domain.CategoryFilter{})
	var re *domain.RetrievalError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RetrievalError", err)
	}
}

func TestOrderRepoSaveIsIdempotent(t *testing.T) {
	db := openDB(t)
	repo := NewOrderRepo(db)
	repo.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()

	product := "X200"
	rec := domain.OrderRecord{
		ID: "lead-1", ChatID: 9, CustomerName: "Ivan", Phone: "+70000000000",
		Service: domain.ServiceProduct, Product: &product,
	}
	if err := repo.SaveOrder(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec.CustomerName = "Other"
	if err := repo.SaveOrder(ctx, rec); err != nil {
		t.Fatalf("resave: %v", err)
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM orders`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("orders = %d, want 1", count)
	}
	got, err := loadOrder(ctx, db, "lead-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CustomerName != "Ivan" || got.Service != domain.ServiceProduct || got.Product == nil || *got.Product != "X200" {
		t.Fatalf("stored %+v", got)
	}
	if !got.CreatedAt.Equal(repo.now()) {
		t.Fatalf("created_at = %v", got.CreatedAt)
	}
}

func TestOrderRepoNullProduct(t *testing.T) {
	db := openDB(t)
	repo := NewOrderRepo(db)
	ctx := context.Background()
	rec := domain.OrderRecord{ChatID: 1, CustomerName: "Anna", Phone: "+7", Service: domain.ServiceRepair}
	if err := repo.SaveOrder(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	var ids []string
	if err := db.Select(&ids, `SELECT id FROM orders`); err != nil || len(ids) != 1 {
		t.Fatalf("ids = %v, %v", ids, err)
	}
	got, err := loadOrder(ctx, db, ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Product != nil || got.Service != domain.ServiceRepair {
		t.Fatalf("stored %+v", got)
	}
}

func TestOrderRepoPersistenceError(t *testing.T) {
	db := openDB(t)
	repo := NewOrderRepo(db)
	_ = db.Close()
	err := repo.SaveOrder(context.Background(), domain.OrderRecord{ID: "x", Service: domain.ServiceRepair})
	var pe *domain.PersistenceError
	if !errors.As(err, &pe) || pe.LeadID != "x" {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
}

func TestParseCatalogRejects(t *testing.T) {
	cases := map[string]string{
		"missing title": "categories:\n  - code: c1\n",
		"dup code":      "categories:\n  - {code: c1, title: A}\n  - {code: c1, title: B}\n",
		"dup product":   "categories:\n  - code: c1\n    title: A\n    products:\n      - title: X\n      - title: X\n",
		"bad yaml":      "categories: [",
	}
	for name, doc := range cases {
		if _, err := ParseCatalog([]byte(doc), nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	tooLong := errors.New("too long")
	check := func(c domain.Category, ps []domain.Product) error {
		for _, p := range ps {
			if len(p.Title) > 8 {
				return tooLong
			}
		}
		return nil
	}
	_, err := ParseCatalog([]byte("categories:\n  - code: c1\n    title: A\n    products:\n      - title: very long title\n"), check)
	if !errors.Is(err, tooLong) {
		t.Fatalf("err = %v, want check error", err)
	}
}

func TestParseCatalogDefaultsPositions(t *testing.T) {
	f, err := ParseCatalog([]byte("categories:\n  - code: c1\n    title: A\n    products:\n      - title: X\n      - title: Y\n"), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := f.Categories[0]
	if c.Position != 1 || c.Products[0].Position != 1 || c.Products[1].Position != 2 || c.Products[1].Category != "c1" {
		t.Fatalf("parsed %+v", c)
	}
}

func TestCatalogSeeder(t *testing.T) {
	db := openDB(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := CatalogSeeder{Path: path}
	ctx := context.Background()
	if err := s.Seed(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// second run upserts in place
	if err := s.Seed(ctx, db); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil || n != 4 {
		t.Fatalf("products = %d, %v", n, err)
	}
	if err := (CatalogSeeder{}).Seed(ctx, db); err != nil {
		t.Fatalf("empty path must be a no-op: %v", err)
	}
	if err := (CatalogSeeder{Path: filepath.Join(t.TempDir(), "missing.yaml")}).Seed(ctx, db); err == nil {
		t.Fatal("expected error for missing file")
	}
}
