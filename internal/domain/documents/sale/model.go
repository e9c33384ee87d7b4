// Package sale implements the Sale and QuickSale document families.
// Both share one aggregate and differ only in numbering and workflow
// configuration.
package sale

import (
	"context"
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// Sale is an outgoing document: catalog lines decrement stock, a paid
// state projects a sale movement into the cash ledger.
type Sale struct {
	entity.Document
}

func New(counterpartyID id.ID) *Sale {
	return &Sale{Document: entity.NewDocument(counterpartyID)}
}

// LineView is a line enriched with catalog display fields and, for
// historical listings, the cost basis effective at the document date.
type LineView struct {
	entity.LineItem
	ProductCode       string      `json:"productCode,omitempty"`
	ProductName       string      `json:"productName,omitempty"`
	CostPerRollAtDate types.Money `json:"costPerRollAtDate,omitempty"`
}

// Detailed is a sale with counterparty display fields and enriched
// lines, the shape the desktop client renders.
type Detailed struct {
	Sale
	CounterpartyName string     `json:"counterpartyName"`
	Items            []LineView `json:"lines"`
}

// ListQuery narrows sale listings.
type ListQuery struct {
	From           *time.Time
	To             *time.Time
	CounterpartyID *id.ID

	// PendingOnly keeps documents with an open status or an unsettled
	// payment state.
	PendingOnly bool

	Limit  int
	Offset int
}

// Repository defines storage for sale documents of one family.
type Repository interface {
	Insert(ctx context.Context, s *Sale) error
	Update(ctx context.Context, s *Sale) error
	Delete(ctx context.Context, docID id.ID) error

	GetByID(ctx context.Context, docID id.ID) (*Sale, error)

	// GetForUpdate loads the header with a row lock inside the current
	// transaction.
	GetForUpdate(ctx context.Context, docID id.ID) (*Sale, error)

	GetLines(ctx context.Context, docID id.ID) ([]entity.LineItem, error)

	// GetLineViews loads lines joined with catalog display fields.
	GetLineViews(ctx context.Context, docID id.ID) ([]LineView, error)

	// ReplaceLines deletes all persisted lines and inserts the given
	// set in order.
	ReplaceLines(ctx context.Context, docID id.ID, lines []entity.LineItem) error

	DeleteLines(ctx context.Context, docID id.ID) error

	List(ctx context.Context, q ListQuery) ([]Sale, error)
}
