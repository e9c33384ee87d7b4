// Package costhistory keeps the append-only record of product cost
// changes used for historical margin reporting.
package costhistory

import (
	"time"

	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// Record is one superseded cost basis for a product. It carries the
// values that were live before an overwrite and is never mutated.
type Record struct {
	ID              id.ID       `db:"id" json:"id"`
	ProductID       id.ID       `db:"product_id" json:"productId"`
	ValidFrom       time.Time   `db:"valid_from" json:"validFrom"`
	CostPerThousand types.Money `db:"cost_per_thousand" json:"costPerThousand"`
	CostPerRoll     types.Money `db:"cost_per_roll" json:"costPerRoll"`
}

// Cost is a product cost basis pair.
type Cost struct {
	PerThousand types.Money `json:"perThousand"`
	PerRoll     types.Money `json:"perRoll"`
}
