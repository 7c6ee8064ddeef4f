package ports

import (
	"context"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

// SweetRepository is the Catalog Store. Every quantity mutation must be a
// single conditional update at the storage boundary.
type SweetRepository interface {
	Create(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error)
	// FindByID returns domain.ErrSweetNotFound when absent.
	FindByID(ctx context.Context, id string) (*domain.Sweet, error)
	// Search returns all sweets matching criteria in insertion order. Empty
	// criteria return the whole catalog.
	Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.Sweet, error)
	// Update applies only the fields present in patch.
	Update(ctx context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error)
	Delete(ctx context.Context, id string) error
	// DecrementStock removes one unit where quantity > 0. Returns
	// domain.ErrOutOfStock or domain.ErrSweetNotFound when nothing matched.
	DecrementStock(ctx context.Context, id string) (*domain.Sweet, error)
	// IncrementStock adds qty units.
	IncrementStock(ctx context.Context, id string, qty int) (*domain.Sweet, error)
}
