package ports

import (
	"context"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

// StockEventRepository persists the stock movement audit trail.
type StockEventRepository interface {
	Insert(ctx context.Context, event *domain.StockEvent) error
	// ListBySweet returns the most recent events first.
	ListBySweet(ctx context.Context, sweetID string, limit int) ([]domain.StockEvent, error)
}

// StockEventPublisher hands committed stock movements to asynchronous
// consumers. Publish must not block the caller.
type StockEventPublisher interface {
	Publish(event domain.StockEvent)
}
