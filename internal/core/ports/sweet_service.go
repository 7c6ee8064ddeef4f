package ports

import (
	"context"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

// CreateSweetInput is the DTO passed from the transport layer to create a sweet.
type CreateSweetInput struct {
	Name        string
	Category    string
	Price       float64
	Quantity    int
	Description string
}

// SearchParams are the raw, untyped search inputs as received from a query string.
type SearchParams struct {
	Name     string
	Query    string // alias of Name
	Category string
	MinPrice string
	MaxPrice string
}

// InventoryService defines the catalog and stock use cases.
type InventoryService interface {
	Create(ctx context.Context, in CreateSweetInput) (*domain.Sweet, error)
	Get(ctx context.Context, id string) (*domain.Sweet, error)
	List(ctx context.Context) ([]domain.Sweet, error)
	Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.Sweet, error)
	Update(ctx context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error)
	Delete(ctx context.Context, id string) error
	Purchase(ctx context.Context, id string) (*domain.Sweet, error)
	Restock(ctx context.Context, id string, qty int) (*domain.Sweet, error)
	StockHistory(ctx context.Context, id string, limit int) ([]domain.StockEvent, error)
}
