package domain

import "time"

// StockEventKind names the stock movement that produced an event.
type StockEventKind string

const (
	StockPurchase StockEventKind = "purchase"
	StockRestock  StockEventKind = "restock"
)

// StockEvent records a single committed stock movement on a sweet.
type StockEvent struct {
	SweetID       string         `json:"sweet_id"`
	Kind          StockEventKind `json:"kind"`
	Delta         int            `json:"delta"`
	QuantityAfter int            `json:"quantity_after"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
