// Package purchase implements the Purchase document family: incoming
// goods from providers. Catalog lines increment stock and feed the
// product cost history.
package purchase

import (
	"context"
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// Purchase is an incoming document.
type Purchase struct {
	entity.Document
}

func New(counterpartyID id.ID) *Purchase {
	return &Purchase{Document: entity.NewDocument(counterpartyID)}
}

// LineView is a line enriched with catalog display fields.
type LineView struct {
	entity.LineItem
	ProductCode       string      `json:"productCode,omitempty"`
	ProductName       string      `json:"productName,omitempty"`
	CostPerRollAtDate types.Money `json:"costPerRollAtDate,omitempty"`
}

// Detailed is a purchase with provider display fields and enriched
// lines.
type Detailed struct {
	Purchase
	CounterpartyName string     `json:"counterpartyName"`
	Items            []LineView `json:"lines"`
}

// ListQuery narrows purchase listings.
type ListQuery struct {
	From           *time.Time
	To             *time.Time
	CounterpartyID *id.ID
	PendingOnly    bool
	Limit          int
	Offset         int
}

// Repository defines storage for purchase documents.
type Repository interface {
	Insert(ctx context.Context, p *Purchase) error
	Update(ctx context.Context, p *Purchase) error
	Delete(ctx context.Context, docID id.ID) error

	GetByID(ctx context.Context, docID id.ID) (*Purchase, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Purchase, error)

	GetLines(ctx context.Context, docID id.ID) ([]entity.LineItem, error)
	GetLineViews(ctx context.Context, docID id.ID) ([]LineView, error)
	ReplaceLines(ctx context.Context, docID id.ID, lines []entity.LineItem) error
	DeleteLines(ctx context.Context, docID id.ID) error

	List(ctx context.Context, q ListQuery) ([]Purchase, error)
}
