// Package stock provides the per-product on-hand quantity register.
package stock

import (
	"context"
	"time"

	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// Entry is the current on-hand quantity for one product.
type Entry struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// Adjustment is one signed quantity change for a product.
type Adjustment struct {
	ProductID id.ID
	Delta     types.Quantity
}

// Repository defines operations on the stock register.
type Repository interface {
	// Adjust applies a signed delta to the product's quantity.
	// Returns false when no stock row exists for the product.
	Adjust(ctx context.Context, productID id.ID, delta types.Quantity) (bool, error)

	// AdjustFloored applies a signed delta but never lets the quantity
	// drop below zero. Used when reverting historical adjustments.
	// Returns false when no stock row exists for the product.
	AdjustFloored(ctx context.Context, productID id.ID, delta types.Quantity) (bool, error)

	// Get returns the entry for a product (zero entry when absent).
	Get(ctx context.Context, productID id.ID) (Entry, error)

	// Ensure creates a zero stock row for a product if missing.
	Ensure(ctx context.Context, productID id.ID) error

	// List returns entries, optionally only those at or below threshold.
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
}

// ListFilter for stock listings.
type ListFilter struct {
	ProductIDs  []id.ID
	MaxQuantity *types.Quantity
	ExcludeZero bool
	Limit       int
	Offset      int
}
