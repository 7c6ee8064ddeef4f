package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

const stockEventsCollection = "stock_events"

// StockEventRepository persists the stock movement audit trail.
type StockEventRepository struct {
	col *mongo.Collection
}

func NewStockEventRepository(db *mongo.Database) *StockEventRepository {
	return &StockEventRepository{col: db.Collection(stockEventsCollection)}
}

type mongoStockEvent struct {
	SweetID       string    `bson:"sweet_id"`
	Kind          string    `bson:"kind"`
	Delta         int       `bson:"delta"`
	QuantityAfter int       `bson:"quantity_after"`
	OccurredAt    time.Time `bson:"occurred_at"`
	ProcessedAt   time.Time `bson:"processed_at"`
}

// Insert appends an event to the stock_events collection.
func (r *StockEventRepository) Insert(ctx context.Context, event *domain.StockEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoStockEvent{
		SweetID:       event.SweetID,
		Kind:          string(event.Kind),
		Delta:         event.Delta,
		QuantityAfter: event.QuantityAfter,
		OccurredAt:    event.OccurredAt.UTC(),
		ProcessedAt:   time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert stock event: %w", err)
	}
	return nil
}

func (r *StockEventRepository) ListBySweet(ctx context.Context, sweetID string, limit int) ([]domain.StockEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{"sweet_id": sweetID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list stock events: %w", err)
	}

	var docs []mongoStockEvent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stock events: %w", err)
	}

	out := make([]domain.StockEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.StockEvent{
			SweetID:       d.SweetID,
			Kind:          domain.StockEventKind(d.Kind),
			Delta:         d.Delta,
			QuantityAfter: d.QuantityAfter,
			OccurredAt:    d.OccurredAt.UTC(),
		})
	}
	return out, nil
}
