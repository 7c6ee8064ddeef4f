package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

const sweetColumns = `id, name, category, price, quantity, description, created_at, updated_at`

type SweetRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSweetRepository(db *sql.DB) *SweetRepository {
	return &SweetRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSweet(row rowScanner) (*domain.Sweet, error) {
	var (
		s                    domain.Sweet
		createdAt, updatedAt string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Quantity, &s.Description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SweetRepository) Create(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created := *s
	created.ID = uuid.NewString()
	created.CreatedAt = s.CreatedAt.UTC()
	created.UpdatedAt = s.UpdatedAt.UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sweets (`+sweetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Name, created.Category, created.Price, created.Quantity, created.Description,
		formatTime(created.CreatedAt), formatTime(created.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert sweet: %w", err)
	}
	return &created, nil
}

func (r *SweetRepository) FindByID(ctx context.Context, id string) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	s, err := scanSweet(r.db.QueryRowContext(ctx, `SELECT `+sweetColumns+` FROM sweets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSweetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find sweet: %w", err)
	}
	return s, nil
}

// Search runs the criteria as one parameterised query ordered by rowid,
// which is insertion order.
func (r *SweetRepository) Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args := buildSearchQuery(criteria)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search sweets: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Sweet, 0)
	for rows.Next() {
		s, err := scanSweet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sweet: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweets: %w", err)
	}
	return out, nil
}

// buildSearchQuery turns criteria into a conjunctive WHERE clause. The name
// match uses instr rather than LIKE so wildcard characters in user input are
// matched literally.
func buildSearchQuery(c domain.SearchCriteria) (string, []any) {
	var (
		where []string
		args  []any
	)
	if c.Name != "" {
		where = append(where, "instr(lower(name), ?) > 0")
		args = append(args, strings.ToLower(c.Name))
	}
	if c.Category != "" {
		where = append(where, "category = ?")
		args = append(args, c.Category)
	}
	if c.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *c.MinPrice)
	}
	if c.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *c.MaxPrice)
	}

	query := `SELECT ` + sweetColumns + ` FROM sweets`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return query + ` ORDER BY rowid`, args
}

// Update sets only the provided fields so concurrent stock changes survive.
func (r *SweetRepository) Update(ctx context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(r.now())}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *patch.Price)
	}
	if patch.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *patch.Quantity)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	args = append(args, id)

	return r.updateReturning(ctx,
		`UPDATE sweets SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+sweetColumns,
		"update sweet", args...)
}

func (r *SweetRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM sweets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sweet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sweet: %w", err)
	}
	if n == 0 {
		return domain.ErrSweetNotFound
	}
	return nil
}

// DecrementStock is a single conditional UPDATE: the row only matches while
// quantity > 0, so concurrent purchases can never oversell.
func (r *SweetRepository) DecrementStock(ctx context.Context, id string) (*domain.Sweet, error) {
	s, err := r.updateReturning(ctx,
		`UPDATE sweets SET quantity = quantity - 1, updated_at = ? WHERE id = ? AND quantity > 0 RETURNING `+sweetColumns,
		"decrement stock", formatTime(r.now()), id)
	if !errors.Is(err, domain.ErrSweetNotFound) {
		return s, err
	}

	// Nothing matched: either the sweet is gone or it is sold out.
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrOutOfStock
}

func (r *SweetRepository) IncrementStock(ctx context.Context, id string, qty int) (*domain.Sweet, error) {
	return r.updateReturning(ctx,
		`UPDATE sweets SET quantity = quantity + ?, updated_at = ? WHERE id = ? RETURNING `+sweetColumns,
		"increment stock", qty, formatTime(r.now()), id)
}

func (r *SweetRepository) updateReturning(ctx context.Context, query, op string, args ...any) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	s, err := scanSweet(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSweetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}
