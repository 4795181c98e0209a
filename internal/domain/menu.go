package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCategory is used for generated items saved without a category
const DefaultCategory = "General"

// MenuItem represents a product of the catalog
type MenuItem struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Category    string
	Description string
	ImageURL    string
	IsActive    *bool
}

// Active treats a missing flag as active.
func (m MenuItem) Active() bool {
	return m.IsActive == nil || *m.IsActive
}

// Validate applies the catalog form rules: name, price and category are required
func (m MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if strings.TrimSpace(m.Category) == "" {
		return fmt.Errorf("%w: product category is required", ErrValidation)
	}
	if m.Price.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}
