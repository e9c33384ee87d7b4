package dto

import (
	"backoffice/internal/core/types"
	"backoffice/internal/domain"
	"backoffice/internal/domain/catalogs/counterparty"
	"backoffice/internal/domain/catalogs/product"
)

// --- Products ---

type ProductRequest struct {
	Code            string      `json:"code" binding:"required"`
	Name            string      `json:"name" binding:"required"`
	Description     string      `json:"description,omitempty"`
	CostPerThousand types.Money `json:"costPerThousand"`
	CostPerRoll     types.Money `json:"costPerRoll"`
	ListPrice       types.Money `json:"listPrice"`
}

func (r *ProductRequest) ToEntity() *product.Product {
	p := product.New(r.Code, r.Name)
	p.Description = r.Description
	p.CostPerThousand = r.CostPerThousand
	p.CostPerRoll = r.CostPerRoll
	p.ListPrice = r.ListPrice
	return p
}

// ApplyTo overlays the request onto an existing product.
func (r *ProductRequest) ApplyTo(p *product.Product) {
	p.Code = r.Code
	p.Name = r.Name
	p.Description = r.Description
	p.CostPerThousand = r.CostPerThousand
	p.CostPerRoll = r.CostPerRoll
	p.ListPrice = r.ListPrice
}

// --- Counterparties ---

type CounterpartyRequest struct {
	Kind    string `json:"kind" binding:"required,oneof=client provider"`
	Name    string `json:"name" binding:"required"`
	TaxID   string `json:"taxId,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty" binding:"omitempty,email"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (r *CounterpartyRequest) ToEntity() *counterparty.Counterparty {
	c := counterparty.New(counterparty.Kind(r.Kind), r.Name)
	r.applyContacts(c)
	return c
}

func (r *CounterpartyRequest) ApplyTo(c *counterparty.Counterparty) {
	c.Kind = counterparty.Kind(r.Kind)
	c.Name = r.Name
	r.applyContacts(c)
}

func (r *CounterpartyRequest) applyContacts(c *counterparty.Counterparty) {
	c.TaxID = r.TaxID
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.Notes = r.Notes
}

// --- Shared catalog list query ---

type CatalogListRequest struct {
	PaginationRequest
	Search         string `form:"search"`
	IncludeDeleted bool   `form:"includeDeleted"`
	OrderBy        string `form:"orderBy"`
}

// ToFilter converts the query into a domain list filter.
func (r *CatalogListRequest) ToFilter() domain.ListFilter {
	r.Defaults()
	return domain.ListFilter{
		Search:         r.Search,
		IncludeDeleted: r.IncludeDeleted,
		OrderBy:        r.OrderBy,
		Limit:          r.PageSize,
		Offset:         r.Offset(),
	}
}
