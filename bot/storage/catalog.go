package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mayak/orderbot/bot/domain"
	"github.com/mayak/orderbot/core/logger"
)

// CatalogRepo reads categories and products.
type CatalogRepo struct {
	db *sqlx.DB
}

// NewCatalogRepo wraps db.
func NewCatalogRepo(db *sqlx.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// ListCategories returns categories ordered by position, then title.
// Failures are reported as *domain.RetrievalError.
func (r *CatalogRepo) ListCategories(ctx context.Context, f domain.CategoryFilter) ([]domain.Category, error) {
	query := `SELECT code, title, position FROM categories`
	var args []any
	if f.Code != "" {
		query += ` WHERE code = ?`
		args = append(args, f.Code)
	}
	query += ` ORDER BY position, title`

	start := time.Now()
	out := []domain.Category{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		logRead(ctx, "categories.list", start, 0, err)
		return nil, &domain.RetrievalError{Op: "list categories", Err: err}
	}
	logRead(ctx, "categories.list", start, len(out), nil)
	return out, nil
}

// ListProducts returns the products of f.Category ordered by position, then title.
// An empty category lists the whole catalog.
func (r *CatalogRepo) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	query := `SELECT category, title, position FROM products`
	var args []any
	if f.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, f.Category)
	}
	query += ` ORDER BY category, position, title`

	start := time.Now()
	out := []domain.Product{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		logRead(ctx, "products.list", start, 0, err, slog.String("category", f.Category))
		return nil, &domain.RetrievalError{Op: "list products", Err: err}
	}
	logRead(ctx, "products.list", start, len(out), nil, slog.String("category", f.Category))
	return out, nil
}

func logRead(ctx context.Context, event string, start time.Time, count int, err error, extra ...slog.Attr) {
	attrs := append([]slog.Attr{
		slog.String("event", event),
		slog.String("status", logger.Status(err)),
		slog.Int("count", count),
		slog.Duration("duration", logger.Took(start)),
	}, extra...)
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	logger.Catalog.LogAttrs(ctx, level, event, attrs...)
}
