// Package counterparty is the catalog of clients and providers that
// documents reference.
package counterparty

import (
	"context"
	"strings"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
)

// Kind separates buying and selling counterparties. Sales reference
// clients, purchases reference providers.
type Kind string

const (
	KindClient   Kind = "client"
	KindProvider Kind = "provider"
)

func ValidKind(k Kind) bool {
	return k == KindClient || k == KindProvider
}

// Counterparty is a client or provider record.
type Counterparty struct {
	entity.BaseCatalog
	Kind    Kind   `db:"kind" json:"kind"`
	Name    string `db:"name" json:"name"`
	TaxID   string `db:"tax_id" json:"taxId,omitempty"`
	Phone   string `db:"phone" json:"phone,omitempty"`
	Email   string `db:"email" json:"email,omitempty"`
	Address string `db:"address" json:"address,omitempty"`
	Notes   string `db:"notes" json:"notes,omitempty"`
}

func New(kind Kind, name string) *Counterparty {
	return &Counterparty{
		BaseCatalog: entity.NewBaseCatalog(),
		Kind:        kind,
		Name:        name,
	}
}

func (c *Counterparty) Validate(ctx context.Context) error {
	if !ValidKind(c.Kind) {
		return apperror.NewValidation("kind must be client or provider").WithDetail("field", "kind")
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}

// Repository defines storage for counterparties.
type Repository interface {
	Create(ctx context.Context, c *Counterparty) error
	Update(ctx context.Context, c *Counterparty) error
	GetByID(ctx context.Context, counterpartyID id.ID) (*Counterparty, error)
	ExistsWithKind(ctx context.Context, counterpartyID id.ID, kind Kind) (bool, error)
	List(ctx context.Context, kind Kind, filter domain.ListFilter) (*domain.ListResult[*Counterparty], error)
	SetDeletionMark(ctx context.Context, counterpartyID id.ID, marked bool) error
}
