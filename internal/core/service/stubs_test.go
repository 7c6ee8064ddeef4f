package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Credential store stub
// ---------------------------------------------------------------------------

type stubAuthRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User // keyed by email
	findErr error
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	c := cloneUser(user)
	c.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	r.users[c.Email] = c
	return cloneUser(c), nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// ---------------------------------------------------------------------------
// Catalog store stub: a mutex makes each stock mutation one atomic step,
// mirroring the conditional update the real stores perform.
// ---------------------------------------------------------------------------

type stubSweetRepo struct {
	mu     sync.Mutex
	seq    int
	byID   map[string]*domain.Sweet
	order  []string
	failOn error
}

func newStubSweetRepo() *stubSweetRepo {
	return &stubSweetRepo{byID: make(map[string]*domain.Sweet)}
}

func (r *stubSweetRepo) Create(_ context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn != nil {
		return nil, r.failOn
	}
	r.seq++
	c := *s
	c.ID = fmt.Sprintf("sweet-%d", r.seq)
	r.byID[c.ID] = &c
	r.order = append(r.order, c.ID)
	out := c
	return &out, nil
}

func (r *stubSweetRepo) FindByID(_ context.Context, id string) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	out := *s
	return &out, nil
}

func (r *stubSweetRepo) Search(_ context.Context, c domain.SearchCriteria) ([]domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Sweet, 0, len(r.order))
	for _, id := range r.order {
		if s := r.byID[id]; c.Matches(*s) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSweetRepo) Update(_ context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	patch.Apply(s)
	out := *s
	return &out, nil
}

func (r *stubSweetRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrSweetNotFound
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *stubSweetRepo) DecrementStock(_ context.Context, id string) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if s.Quantity <= 0 {
		return nil, domain.ErrOutOfStock
	}
	s.Quantity--
	out := *s
	return &out, nil
}

func (r *stubSweetRepo) IncrementStock(_ context.Context, id string, qty int) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	s.Quantity += qty
	out := *s
	return &out, nil
}

// ---------------------------------------------------------------------------
// Stock events
// ---------------------------------------------------------------------------

type stubEventRepo struct {
	mu     sync.Mutex
	events []domain.StockEvent
}

func (r *stubEventRepo) Insert(_ context.Context, e *domain.StockEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *stubEventRepo) ListBySweet(_ context.Context, sweetID string, limit int) ([]domain.StockEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StockEvent
	for _, e := range r.events {
		if e.SweetID == sweetID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubPublisher struct {
	mu        sync.Mutex
	published []domain.StockEvent
}

func (p *stubPublisher) Publish(e domain.StockEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, e)
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

// ---------------------------------------------------------------------------
// Login throttle
// ---------------------------------------------------------------------------

type stubThrottle struct {
	max      int
	failures map[string]int
	err      error
}

func newStubThrottle(max int) *stubThrottle {
	return &stubThrottle{max: max, failures: make(map[string]int)}
}

func (t *stubThrottle) Locked(_ context.Context, email string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.failures[email] >= t.max, nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, email string) error {
	t.failures[email]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, email string) error {
	delete(t.failures, email)
	return nil
}
