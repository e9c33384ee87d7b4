// Package product is the sellable goods catalog, including the live
// cost basis and the derived list price.
package product

import (
	"context"
	"strings"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain"
	"backoffice/internal/domain/registers/costhistory"
)

// Product is a catalog item. Cost fields are the live basis; past
// values live in the cost history register.
type Product struct {
	entity.BaseCatalog
	Code            string      `db:"code" json:"code"`
	Name            string      `db:"name" json:"name"`
	Description     string      `db:"description" json:"description,omitempty"`
	CostPerThousand types.Money `db:"cost_per_thousand" json:"costPerThousand"`
	CostPerRoll     types.Money `db:"cost_per_roll" json:"costPerRoll"`
	ListPrice       types.Money `db:"list_price" json:"listPrice"`
}

func New(code, name string) *Product {
	return &Product{
		BaseCatalog: entity.NewBaseCatalog(),
		Code:        code,
		Name:        name,
	}
}

func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if strings.TrimSpace(p.Code) == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if p.CostPerThousand.IsNegative() || p.CostPerRoll.IsNegative() || p.ListPrice.IsNegative() {
		return apperror.NewValidation("cost and price fields must not be negative").WithDetail("field", "cost")
	}
	return nil
}

// Cost returns the live cost basis pair.
func (p *Product) Cost() costhistory.Cost {
	return costhistory.Cost{PerThousand: p.CostPerThousand, PerRoll: p.CostPerRoll}
}

// Repository defines storage for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	Exists(ctx context.Context, productID id.ID) (bool, error)
	ExistingIDs(ctx context.Context, productIDs []id.ID) (map[id.ID]bool, error)
	List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*Product], error)
	SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error

	// GetCost and UpdateCost back the cost history protocol and run
	// inside the caller's transaction.
	GetCost(ctx context.Context, productID id.ID) (costhistory.Cost, error)
	UpdateCost(ctx context.Context, productID id.ID, cost costhistory.Cost, listPrice types.Money) error
}
