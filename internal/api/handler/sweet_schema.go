package handler

import (
	"github.com/sweetshop/inventory-system/internal/core/domain"
	"github.com/sweetshop/inventory-system/internal/core/ports"
)

// createSweetRequest is the JSON body for POST /api/sweets.
// Range checks live in the domain; the tags only reject missing fields.
type createSweetRequest struct {
	Name        string   `json:"name" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Price       *float64 `json:"price" validate:"required"`
	Quantity    *int     `json:"quantity" validate:"required"`
	Description string   `json:"description"`
}

func (r createSweetRequest) toInput() ports.CreateSweetInput {
	return ports.CreateSweetInput{
		Name:        r.Name,
		Category:    r.Category,
		Price:       *r.Price,
		Quantity:    *r.Quantity,
		Description: r.Description,
	}
}

// updateSweetRequest is the JSON body for PUT /api/sweets/:id. Absent fields
// are left untouched.
type updateSweetRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Description *string  `json:"description"`
}

func (r updateSweetRequest) toPatch() domain.SweetPatch {
	return domain.SweetPatch{
		Name:        r.Name,
		Category:    r.Category,
		Price:       r.Price,
		Quantity:    r.Quantity,
		Description: r.Description,
	}
}

type restockRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type stockResponse struct {
	Message string        `json:"message"`
	Sweet   *domain.Sweet `json:"sweet"`
}

type messageResponse struct {
	Message string `json:"message"`
}
