package domain

import (
	"math"
	"strings"
	"time"
)

// MinPrice is the lowest price a sweet may carry.
const MinPrice = 0.01

// Sweet is a sellable catalog entry.
type Sweet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the catalog invariants on a complete record.
func (s *Sweet) Validate() error {
	if err := validateName(s.Name); err != nil {
		return err
	}
	if err := validateCategory(s.Category); err != nil {
		return err
	}
	if err := validatePrice(s.Price); err != nil {
		return err
	}
	return validateQuantity(s.Quantity)
}

// SweetPatch carries the fields of a partial update. Nil means "keep".
type SweetPatch struct {
	Name        *string
	Category    *string
	Price       *float64
	Quantity    *int
	Description *string
}

// IsEmpty reports whether the patch changes nothing.
func (p SweetPatch) IsEmpty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Quantity == nil && p.Description == nil
}

// Validate checks every provided field. Because each invariant concerns a
// single field, a valid record merged with a valid patch stays valid.
func (p SweetPatch) Validate() error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return err
		}
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return err
		}
	}
	if p.Quantity != nil {
		if err := validateQuantity(*p.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the patch into s.
func (p SweetPatch) Apply(s *Sweet) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return Validationf("name is required")
	}
	return nil
}

func validateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return Validationf("category is required")
	}
	return nil
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < MinPrice {
		return Validationf("price must be at least %.2f", MinPrice)
	}
	return nil
}

func validateQuantity(qty int) error {
	if qty < 0 {
		return Validationf("quantity must not be negative")
	}
	return nil
}
