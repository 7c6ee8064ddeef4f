package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

func seedSweet(t *testing.T, repo *SweetRepository, name, category string, price float64, qty int) *domain.Sweet {
	t.Helper()
	now := time.Now()
	s, err := repo.Create(context.Background(), &domain.Sweet{
		Name: name, Category: category, Price: price, Quantity: qty, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seeding %s: %v", name, err)
	}
	return s
}

func TestSweetRepository_CreateAndFind(t *testing.T) {
	repo := NewSweetRepository(NewTestDB(t))
	ctx := context.Background()

	created := seedSweet(t, repo, "Choco Bar", "Chocolates", 2.5, 3)
	if created.ID == "" {
		t.Fatal("expected an ID")
	}

	got, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "Choco Bar" || got.Price != 2.5 || got.Quantity != 3 {
		t.Fatalf("unexpected sweet: %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("timestamps should round-trip: %s vs %s", got.CreatedAt, created.CreatedAt)
	}

	if _, err := repo.FindByID(ctx, "nope"); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSweetRepository_Search(t *testing.T) {
	repo := NewSweetRepository(NewTestDB(t))
	ctx := context.Background()

	a := seedSweet(t, repo, "Dark Choco", "Chocolates", 3.0, 1)
	b := seedSweet(t, repo, "Milk choco", "Chocolates", 1.0, 1)
	c := seedSweet(t, repo, "Gummy_Bear", "Gummies", 2.0, 1)

	all, err := repo.Search(ctx, domain.SearchCriteria{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 3 || all[0].ID != a.ID || all[1].ID != b.ID || all[2].ID != c.ID {
		t.Fatalf("expected insertion order, got %+v", all)
	}

	lo := 2.0
	cases := []struct {
		name     string
		criteria domain.SearchCriteria
		want     []string
	}{
		{"name case-insensitive", domain.SearchCriteria{Name: "CHOCO"}, []string{a.ID, b.ID}},
		{"name wildcard is literal", domain.SearchCriteria{Name: "_"}, []string{c.ID}},
		{"category exact", domain.SearchCriteria{Category: "Gummies"}, []string{c.ID}},
		{"category case-sensitive", domain.SearchCriteria{Category: "gummies"}, nil},
		{"conjunctive", domain.SearchCriteria{Category: "Chocolates", MinPrice: &lo}, []string{a.ID}},
		{"inclusive bound", domain.SearchCriteria{MinPrice: &lo, MaxPrice: &lo}, []string{c.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tc.criteria)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d results, got %+v", len(tc.want), got)
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("result %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestSweetRepository_UpdateOnlyTouchesProvidedFields(t *testing.T) {
	repo := NewSweetRepository(NewTestDB(t))
	ctx := context.Background()
	s := seedSweet(t, repo, "Choco Bar", "Chocolates", 2.5, 3)

	// A purchase lands between the client's read and its update.
	if _, err := repo.DecrementStock(ctx, s.ID); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	price := 4.0
	got, err := repo.Update(ctx, s.ID, domain.SweetPatch{Price: &price})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Price != 4.0 || got.Quantity != 2 || got.Name != "Choco Bar" {
		t.Fatalf("unexpected sweet after update: %+v", got)
	}

	if _, err := repo.Update(ctx, "nope", domain.SweetPatch{Price: &price}); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSweetRepository_Delete(t *testing.T) {
	repo := NewSweetRepository(NewTestDB(t))
	ctx := context.Background()
	s := seedSweet(t, repo, "Choco Bar", "Chocolates", 2.5, 3)

	if err := repo.Delete(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, s.ID); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSweetRepository_DecrementStock(t *testing.T) {
	repo := NewSweetRepository(NewTestDB(t))
	ctx := context.Background()
	s := seedSweet(t, repo, "Choco Bar", "Chocolates", 2.5, 1)

	got, err := repo.DecrementStock(ctx, s.ID)
	if err != nil || got.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %+v %v", got, err)
	}
	if _, err := repo.DecrementStock(ctx, s.ID); !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if _, err := repo.DecrementStock(ctx, "nope"); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSweetRepository_ConcurrentDecrementsNeverOversell(t *testing.T) {
	repo := NewSweetRepository(NewTestDB(t))
	ctx := context.Background()

	const stock = 10
	s := seedSweet(t, repo, "Lollipop", "Candy", 0.5, stock)

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		outOfStock int
	)
	for i := 0; i < stock+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.DecrementStock(ctx, s.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrOutOfStock):
				outOfStock++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != stock || outOfStock != 1 {
		t.Fatalf("expected %d successes and 1 out of stock, got %d / %d", stock, successes, outOfStock)
	}
	final, _ := repo.FindByID(ctx, s.ID)
	if final.Quantity != 0 {
		t.Fatalf("expected final quantity 0, got %d", final.Quantity)
	}
}

func TestSweetRepository_IncrementStock(t *testing.T) {
	repo := NewSweetRepository(NewTestDB(t))
	ctx := context.Background()
	s := seedSweet(t, repo, "Choco Bar", "Chocolates", 2.5, 3)

	got, err := repo.IncrementStock(ctx, s.ID, 5)
	if err != nil || got.Quantity != 8 {
		t.Fatalf("expected quantity 8, got %+v %v", got, err)
	}
	if _, err := repo.IncrementStock(ctx, "nope", 1); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBuildSearchQuery(t *testing.T) {
	q, args := buildSearchQuery(domain.SearchCriteria{})
	if q != `SELECT `+sweetColumns+` FROM sweets ORDER BY rowid` || len(args) != 0 {
		t.Fatalf("unexpected empty query: %s %v", q, args)
	}

	hi := 5.0
	q, args = buildSearchQuery(domain.SearchCriteria{Name: "Bar", MaxPrice: &hi})
	want := `SELECT ` + sweetColumns + ` FROM sweets WHERE instr(lower(name), ?) > 0 AND price <= ? ORDER BY rowid`
	if q != want {
		t.Fatalf("unexpected query:\n got %s\nwant %s", q, want)
	}
	if len(args) != 2 || args[0] != "bar" || args[1] != 5.0 {
		t.Fatalf("unexpected args: %v", args)
	}
}
