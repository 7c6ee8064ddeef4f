package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

// StockEventRepository persists the stock movement audit trail.
type StockEventRepository struct {
	db *sql.DB
}

func NewStockEventRepository(db *sql.DB) *StockEventRepository {
	return &StockEventRepository{db: db}
}

func (r *StockEventRepository) Insert(ctx context.Context, e *domain.StockEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stock_events (sweet_id, kind, delta, quantity_after, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		e.SweetID, string(e.Kind), e.Delta, e.QuantityAfter, formatTime(e.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("insert stock event: %w", err)
	}
	return nil
}

func (r *StockEventRepository) ListBySweet(ctx context.Context, sweetID string, limit int) ([]domain.StockEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT sweet_id, kind, delta, quantity_after, occurred_at FROM stock_events
		 WHERE sweet_id = ? ORDER BY occurred_at DESC, id DESC LIMIT ?`,
		sweetID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list stock events: %w", err)
	}
	defer rows.Close()

	out := make([]domain.StockEvent, 0)
	for rows.Next() {
		var (
			e          domain.StockEvent
			kind       string
			occurredAt string
		)
		if err := rows.Scan(&e.SweetID, &kind, &e.Delta, &e.QuantityAfter, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan stock event: %w", err)
		}
		e.Kind = domain.StockEventKind(kind)
		if e.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
