package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mayak/orderbot/bot/domain"
	"github.com/mayak/orderbot/core/logger"
)

const insertOrder = `
INSERT INTO orders (id, chat_id, customer_name, phone, service, product, created_at)
VALUES (:id, :chat_id, :customer_name, :phone, :service, :product, :created_at)
ON CONFLICT (id) DO NOTHING`

// OrderRepo persists leads.
type OrderRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewOrderRepo wraps db.
func NewOrderRepo(db *sqlx.DB) *OrderRepo {
	return &OrderRepo{db: db, now: time.Now}
}

// SaveOrder inserts rec. Saving the same ID twice keeps the first row.
// Failures are reported as *domain.PersistenceError.
func (r *OrderRepo) SaveOrder(ctx context.Context, rec domain.OrderRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	start := time.Now()
	res, err := r.db.NamedExecContext(ctx, insertOrder, rec)
	if err != nil {
		logger.Orders.LogAttrs(ctx, slog.LevelError, "order.save",
			slog.String("event", "order.save"),
			slog.String("status", "fail"),
			slog.String("lead_id", rec.ID),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return &domain.PersistenceError{LeadID: rec.ID, Err: err}
	}
	inserted, _ := res.RowsAffected()
	logger.Orders.LogAttrs(ctx, slog.LevelInfo, "order.save",
		slog.String("event", "order.save"),
		slog.String("status", "ok"),
		slog.String("lead_id", rec.ID),
		slog.String("service", rec.Service.String()),
		slog.Bool("duplicate", inserted == 0),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
