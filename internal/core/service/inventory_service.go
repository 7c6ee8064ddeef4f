package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-system/internal/core/domain"
	"github.com/sweetshop/inventory-system/internal/core/ports"
	"github.com/sweetshop/inventory-system/internal/infrastructure/metrics"
)

const (
	// MaxRestock bounds a single restock so counters cannot overflow.
	MaxRestock = 1_000_000

	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// InventoryService owns catalog CRUD and the stock invariant.
type InventoryService struct {
	repo      ports.SweetRepository
	events    ports.StockEventRepository
	publisher ports.StockEventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewInventoryService wires the catalog store, the stock event store used for
// history reads, and the publisher that receives committed stock movements.
// A nil publisher disables event publication.
func NewInventoryService(
	repo ports.SweetRepository,
	events ports.StockEventRepository,
	publisher ports.StockEventPublisher,
	log zerolog.Logger,
) *InventoryService {
	return &InventoryService{
		repo:      repo,
		events:    events,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (s *InventoryService) Create(ctx context.Context, in ports.CreateSweetInput) (*domain.Sweet, error) {
	now := s.now().UTC()
	sweet := &domain.Sweet{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Quantity:    in.Quantity,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := sweet.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, sweet)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create sweet")
		return nil, err
	}

	s.log.Info().Str("sweet_id", created.ID).Str("name", created.Name).Msg("sweet created")
	return created, nil
}

func (s *InventoryService) Get(ctx context.Context, id string) (*domain.Sweet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrSweetNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// List returns the whole catalog in insertion order.
func (s *InventoryService) List(ctx context.Context) ([]domain.Sweet, error) {
	return s.repo.Search(ctx, domain.SearchCriteria{})
}

// Search returns the sweets matching every provided criterion.
func (s *InventoryService) Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.Sweet, error) {
	return s.repo.Search(ctx, criteria)
}

// Update merges patch into the stored sweet. Only the provided fields are
// written, so a concurrent purchase is never overwritten by a stale quantity.
func (s *InventoryService) Update(ctx context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error) {
	patch = trimPatch(patch)
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}

	updated, err := s.repo.Update(ctx, strings.TrimSpace(id), patch)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("sweet_id", updated.ID).Msg("sweet updated")
	return updated, nil
}

func (s *InventoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}
	s.log.Info().Str("sweet_id", id).Msg("sweet deleted")
	return nil
}

// Purchase removes exactly one unit. The decrement is a single conditional
// update in the store; it fails with domain.ErrOutOfStock at zero.
func (s *InventoryService) Purchase(ctx context.Context, id string) (*domain.Sweet, error) {
	sweet, err := s.repo.DecrementStock(ctx, strings.TrimSpace(id))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOutOfStock):
			metrics.PurchasesTotal.WithLabelValues("out_of_stock").Inc()
		case errors.Is(err, domain.ErrNotFound):
			metrics.PurchasesTotal.WithLabelValues("not_found").Inc()
		default:
			metrics.PurchasesTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.PurchasesTotal.WithLabelValues("success").Inc()
	s.publish(domain.StockEvent{
		SweetID:       sweet.ID,
		Kind:          domain.StockPurchase,
		Delta:         -1,
		QuantityAfter: sweet.Quantity,
	})
	return sweet, nil
}

// Restock adds qty units (1..MaxRestock) atomically.
func (s *InventoryService) Restock(ctx context.Context, id string, qty int) (*domain.Sweet, error) {
	if qty <= 0 {
		return nil, domain.Validationf("restock quantity must be a positive integer")
	}
	if qty > MaxRestock {
		return nil, domain.Validationf("restock quantity must be at most %d", MaxRestock)
	}

	sweet, err := s.repo.IncrementStock(ctx, strings.TrimSpace(id), qty)
	if err != nil {
		return nil, err
	}

	metrics.RestockedUnitsTotal.Add(float64(qty))
	s.publish(domain.StockEvent{
		SweetID:       sweet.ID,
		Kind:          domain.StockRestock,
		Delta:         qty,
		QuantityAfter: sweet.Quantity,
	})
	s.log.Info().Str("sweet_id", sweet.ID).Int("added", qty).Int("quantity", sweet.Quantity).Msg("sweet restocked")
	return sweet, nil
}

// StockHistory returns the most recent stock movements for a sweet.
func (s *InventoryService) StockHistory(ctx context.Context, id string, limit int) ([]domain.StockEvent, error) {
	sweet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.events.ListBySweet(ctx, sweet.ID, limit)
}

func (s *InventoryService) publish(event domain.StockEvent) {
	if s.publisher == nil {
		return
	}
	event.OccurredAt = s.now().UTC()
	s.publisher.Publish(event)
}

func trimPatch(p domain.SweetPatch) domain.SweetPatch {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	p.Name = trim(p.Name)
	p.Category = trim(p.Category)
	p.Description = trim(p.Description)
	return p
}
