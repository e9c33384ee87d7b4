package cashflow

import (
	"context"
	"time"

	"backoffice/internal/core/id"
)

// ListFilter narrows ledger listings.
type ListFilter struct {
	From           *time.Time
	To             *time.Time
	Types          []MovementType
	CounterpartyID *id.ID
	Limit          int
	Offset         int
}

// Repository defines storage operations on the cash ledger.
type Repository interface {
	Insert(ctx context.Context, m *CashMovement) error
	Update(ctx context.Context, m *CashMovement) error
	Delete(ctx context.Context, movementID id.ID) error

	// GetByDocument returns the movement projected for a document,
	// or nil when the document has none.
	GetByDocument(ctx context.Context, documentID id.ID) (*CashMovement, error)

	// DeleteByDocument removes the projected movement for a document
	// if one exists.
	DeleteByDocument(ctx context.Context, documentID id.ID) error

	GetByID(ctx context.Context, movementID id.ID) (*CashMovement, error)
	List(ctx context.Context, filter ListFilter) ([]CashMovement, error)
}
