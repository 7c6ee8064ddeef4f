package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

func TestAuthRepository_CreateAndFind(t *testing.T) {
	repo := NewAuthRepository(NewTestDB(t))
	ctx := context.Background()

	u, err := repo.Create(ctx, &domain.User{
		Username: "alice", Email: "Alice@Example.com", PasswordHash: "hash", Role: domain.RoleUser, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}

	got, err := repo.FindByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != u.ID || got.Role != domain.RoleUser || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestAuthRepository_DuplicateEmail(t *testing.T) {
	repo := NewAuthRepository(NewTestDB(t))
	ctx := context.Background()

	user := &domain.User{Username: "a", Email: "a@x.io", PasswordHash: "h", Role: domain.RoleUser, CreatedAt: time.Now()}
	if _, err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	user.Email = "A@X.IO"
	if _, err := repo.Create(ctx, user); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthRepository_NotFound(t *testing.T) {
	repo := NewAuthRepository(NewTestDB(t))
	if _, err := repo.FindByEmail(context.Background(), "ghost@x.io"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
