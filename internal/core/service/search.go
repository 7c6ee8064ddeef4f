package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/sweetshop/inventory-system/internal/core/domain"
	"github.com/sweetshop/inventory-system/internal/core/ports"
)

// ParseSearchCriteria coerces raw query parameters into typed criteria.
// Blank parameters are treated as absent.
func ParseSearchCriteria(p ports.SearchParams) (domain.SearchCriteria, error) {
	c := domain.SearchCriteria{
		Name:     strings.TrimSpace(p.Name),
		Category: strings.TrimSpace(p.Category),
	}
	if c.Name == "" {
		c.Name = strings.TrimSpace(p.Query)
	}

	var err error
	if c.MinPrice, err = parsePriceBound("minPrice", p.MinPrice); err != nil {
		return domain.SearchCriteria{}, err
	}
	if c.MaxPrice, err = parsePriceBound("maxPrice", p.MaxPrice); err != nil {
		return domain.SearchCriteria{}, err
	}
	return c, nil
}

func parsePriceBound(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, domain.Validationf("%s must be a number", field)
	}
	return &v, nil
}
