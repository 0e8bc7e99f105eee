package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	"github.com/mayak/orderbot/bot/domain"
	"github.com/mayak/orderbot/core/logger"
)

// CatalogFile is the YAML layout of a catalog seed.
//
//	categories:
//	  - code: phones
//	    title: Телефоны
//	    products:
//	      - title: X200
type CatalogFile struct {
	Categories []SeedCategory `yaml:"categories"`
}

// SeedCategory is a category together with its products.
type SeedCategory struct {
	domain.Category `yaml:",inline"`
	Products        []domain.Product `yaml:"products"`
}

// CatalogCheck validates a category before it is written, e.g. that its
// button tokens fit into callback data.
type CatalogCheck func(c domain.Category, products []domain.Product) error

// ParseCatalog decodes and validates a catalog seed. Missing positions follow file order.
func ParseCatalog(data []byte, check CatalogCheck) (CatalogFile, error) {
	var f CatalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse catalog: %w", err)
	}
	var errs []error
	seen := make(map[string]struct{}, len(f.Categories))
	for i := range f.Categories {
		c := &f.Categories[i]
		c.Code = strings.TrimSpace(c.Code)
		c.Title = strings.TrimSpace(c.Title)
		if c.Code == "" || c.Title == "" {
			errs = append(errs, fmt.Errorf("category #%d: code and title are required", i+1))
			continue
		}
		if _, dup := seen[c.Code]; dup {
			errs = append(errs, fmt.Errorf("category %q: duplicate code", c.Code))
			continue
		}
		seen[c.Code] = struct{}{}
		if c.Position == 0 {
			c.Position = i + 1
		}
		titles := make(map[string]struct{}, len(c.Products))
		for j := range c.Products {
			p := &c.Products[j]
			p.Category = c.Code
			p.Title = strings.TrimSpace(p.Title)
			if p.Title == "" {
				errs = append(errs, fmt.Errorf("category %q product #%d: title is required", c.Code, j+1))
				continue
			}
			if _, dup := titles[p.Title]; dup {
				errs = append(errs, fmt.Errorf("category %q: duplicate product %q", c.Code, p.Title))
				continue
			}
			titles[p.Title] = struct{}{}
			if p.Position == 0 {
				p.Position = j + 1
			}
		}
		if check != nil {
			if err := check(c.Category, c.Products); err != nil {
				errs = append(errs, fmt.Errorf("category %q: %w", c.Code, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return CatalogFile{}, err
	}
	return f, nil
}

// CatalogSeeder upserts a YAML catalog. Rows missing from the file are left alone.
type CatalogSeeder struct {
	Path  string
	Check CatalogCheck
}

// Seed loads the file and writes it in one transaction. An empty Path is a no-op.
func (s CatalogSeeder) Seed(ctx context.Context, db *sqlx.DB) error {
	if strings.TrimSpace(s.Path) == "" {
		logger.SEED.LogAttrs(ctx, slog.LevelInfo, "catalog.seed",
			slog.String("event", "catalog.seed"),
			slog.String("status", "skip"),
		)
		return nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return fmt.Errorf("read catalog %s: %w", s.Path, err)
	}
	f, err := ParseCatalog(data, s.Check)
	if err != nil {
		return err
	}
	start := time.Now()
	products, err := Upsert(ctx, db, f)
	if err != nil {
		return err
	}
	logger.SEED.LogAttrs(ctx, slog.LevelInfo, "catalog.seed",
		slog.String("event", "catalog.seed"),
		slog.String("status", "ok"),
		slog.Int("category", len(f.Categories)),
		slog.Int("count", products),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

const (
	upsertCategory = `
INSERT INTO categories (code, title, position) VALUES (?, ?, ?)
ON CONFLICT (code) DO UPDATE SET title = excluded.title, position = excluded.position`
	upsertProduct = `
INSERT INTO products (category, title, position) VALUES (?, ?, ?)
ON CONFLICT (category, title) DO UPDATE SET position = excluded.position`
)

// Upsert writes f and returns the number of products written.
func Upsert(ctx context.Context, db *sqlx.DB, f CatalogFile) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	catQ, prodQ := tx.Rebind(upsertCategory), tx.Rebind(upsertProduct)
	products := 0
	for _, c := range f.Categories {
		if _, err := tx.ExecContext(ctx, catQ, c.Code, c.Title, c.Position); err != nil {
			return 0, fmt.Errorf("seed category %q: %w", c.Code, err)
		}
		for _, p := range c.Products {
			if _, err := tx.ExecContext(ctx, prodQ, c.Code, p.Title, p.Position); err != nil {
				return 0, fmt.Errorf("seed product %q/%q: %w", c.Code, p.Title, err)
			}
			products++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed: commit: %w", err)
	}
	return products, nil
}
