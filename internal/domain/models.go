package domain

import (
	"fmt"
	"strings"
)

// Product is keyed by ID; Name is display only.
type Product struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	Stock           int     `json:"stock"`
	Image           string  `json:"image"`
	QuantityPerUnit float64 `json:"quantity_per_unit,omitempty"`
	Unit            string  `json:"unit,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must be non-negative", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must be non-negative", ErrInvalidProduct)
	}
	if p.QuantityPerUnit < 0 {
		return fmt.Errorf("%w: quantity per unit must be non-negative", ErrInvalidProduct)
	}
	return nil
}

// Categories offered by the store front. Products may still carry free text.
var Categories = []string{"Granos", "Lácteos", "Panadería", "Bebidas", "Aseo", "Frutas y verduras", "Carnes"}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}
