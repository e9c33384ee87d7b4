package dto

import (
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/documents/purchase"
	"backoffice/internal/domain/documents/sale"
)

// DocumentLineRequest is one line of a document mutation. Kind selects
// the variant: catalog lines need productId, free-text lines need
// description.
type DocumentLineRequest struct {
	Kind        string      `json:"kind" binding:"required,oneof=catalog free_text"`
	ProductID   string      `json:"productId,omitempty"`
	Description string      `json:"description,omitempty"`
	Quantity    float64     `json:"quantity" binding:"required"`
	UnitPrice   types.Money `json:"unitPrice"`
	DiscountPct types.Money `json:"discountPct"`
}

func (r DocumentLineRequest) toLine() entity.LineItem {
	quantity := types.NewQuantityFromFloat64(r.Quantity)
	switch entity.LineKind(r.Kind) {
	case entity.LineCatalog:
		productID, _ := id.Parse(r.ProductID)
		return entity.NewCatalogLine(productID, quantity, r.UnitPrice, r.DiscountPct)
	default:
		return entity.NewFreeTextLine(r.Description, quantity, r.UnitPrice)
	}
}

// DocumentRequest is the mutation payload shared by all document
// families: header plus the full ordered line set. On update the
// persisted lines are replaced with this set.
type DocumentRequest struct {
	Date           time.Time             `json:"date" binding:"required"`
	CounterpartyID string                `json:"counterpartyId" binding:"required"`
	Status         string                `json:"status,omitempty"`
	PaymentState   string                `json:"paymentState" binding:"required"`
	TaxAmount      types.Money           `json:"taxAmount"`
	OtherAmount    types.Money           `json:"otherAmount"`
	ExchangeRate   types.Money           `json:"exchangeRate" binding:"required"`
	TotalLocal     types.Money           `json:"totalLocal"`
	Notes          string                `json:"notes,omitempty"`
	Lines          []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (r *DocumentRequest) fill(doc *entity.Document) {
	doc.Date = r.Date
	doc.Status = r.Status
	doc.PaymentState = entity.PaymentState(r.PaymentState)
	doc.TaxAmount = r.TaxAmount
	doc.OtherAmount = r.OtherAmount
	doc.ExchangeRate = r.ExchangeRate
	doc.TotalLocal = r.TotalLocal
	doc.Notes = r.Notes
	for _, line := range r.Lines {
		doc.Lines = append(doc.Lines, line.toLine())
	}
}

// ToSale builds a sale aggregate from the request.
func (r *DocumentRequest) ToSale() *sale.Sale {
	counterpartyID, _ := id.Parse(r.CounterpartyID)
	doc := sale.New(counterpartyID)
	r.fill(&doc.Document)
	return doc
}

// ToPurchase builds a purchase aggregate from the request.
func (r *DocumentRequest) ToPurchase() *purchase.Purchase {
	counterpartyID, _ := id.Parse(r.CounterpartyID)
	doc := purchase.New(counterpartyID)
	r.fill(&doc.Document)
	return doc
}
