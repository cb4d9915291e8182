// Package orders journals completed checkouts to Postgres.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/metrics"
)

// Order is one completed checkout.
type Order struct {
	ID           int64     `db:"id"`
	ChatID       int64     `db:"chat_id"`
	CustomerID   string    `db:"customer_id"`
	CustomerName string    `db:"customer_name"`
	Email        string    `db:"email"`
	Total        string    `db:"total"`
	CreatedAt    time.Time `db:"created_at"`
}

// Journal stores orders in the orders table.
type Journal struct {
	db *sqlx.DB
}

// NewJournal wraps an open pool.
func NewJournal(db *sqlx.DB) *Journal {
	return &Journal{db: db}
}

const insertOrder = `
INSERT INTO orders (chat_id, customer_id, customer_name, email, total, created_at)
VALUES (:chat_id, :customer_id, :customer_name, :email, :total, :created_at)`

// Record appends o. A zero CreatedAt is set to now.
func (j *Journal) Record(ctx context.Context, o Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	start := time.Now()
	_, err := j.db.NamedExecContext(ctx, insertOrder, o)
	metrics.OrdersRecordedTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		logger.LogEvent(ctx, logger.DB, slog.LevelError, "orders.record",
			slog.String("status", "fail"),
			slog.Int64("chat_id", o.ChatID),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return fmt.Errorf("orders: record: %w", err)
	}
	logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "orders.record",
		slog.String("status", "ok"),
		slog.Int64("chat_id", o.ChatID),
		slog.String("customer_id", o.CustomerID),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// ForChat returns up to limit most recent orders of a chat.
func (j *Journal) ForChat(ctx context.Context, chatID int64, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []Order
	err := j.db.SelectContext(ctx, &out,
		`SELECT id, chat_id, customer_id, customer_name, email, total, created_at
		   FROM orders WHERE chat_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	return out, nil
}
