package domain

import "strings"

// SearchCriteria is a conjunction of optional catalog filters.
// Zero values (empty string, nil bound) impose no constraint.
type SearchCriteria struct {
	Name     string // case-insensitive substring
	Category string // exact match
	MinPrice *float64
	MaxPrice *float64
}

func (c SearchCriteria) IsEmpty() bool {
	return c.Name == "" && c.Category == "" && c.MinPrice == nil && c.MaxPrice == nil
}

// Matches reports whether s satisfies every provided criterion. Price bounds
// are inclusive.
func (c SearchCriteria) Matches(s Sweet) bool {
	if c.Name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(c.Name)) {
		return false
	}
	if c.Category != "" && s.Category != c.Category {
		return false
	}
	if c.MinPrice != nil && s.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && s.Price > *c.MaxPrice {
		return false
	}
	return true
}
