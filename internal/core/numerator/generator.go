// Package numerator provides domain contracts for document numbering.
// Implementations live in the infrastructure layer.
package numerator

import (
	"context"
)

// Generator assigns business-facing document numbers.
//
// Numbers must be unique and increasing within a family. The engine calls
// Next on the document's own transaction so a rolled-back create releases
// its number together with the document row.
type Generator interface {
	// Next returns the next formatted number for the family.
	Next(ctx context.Context, family Family) (string, error)

	// SetNext seeds the counter (used when migrating legacy numbers).
	SetNext(ctx context.Context, family Family, value int64) error
}
