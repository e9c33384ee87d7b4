package entity

import (
	"fmt"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// LineKind discriminates the line item variant.
type LineKind string

const (
	// LineCatalog references a catalog product and participates in the
	// stock and cost-history projections.
	LineCatalog LineKind = "catalog"
	// LineFreeText is an ad-hoc description-only line. It contributes to
	// the document total but never touches stock or cost history.
	LineFreeText LineKind = "free_text"
)

// LineItem is one row of a document's table part, a tagged union over
// {catalog product line, free-text line}. Lines are owned exclusively by
// their document: on edit the whole set is deleted and re-inserted.
type LineItem struct {
	LineID id.ID    `db:"line_id" json:"lineId"`
	LineNo int      `db:"line_no" json:"lineNo"`
	Kind   LineKind `db:"kind" json:"kind"`

	// ProductID is set for catalog lines only (uuid.Nil otherwise)
	ProductID id.ID `db:"product_id" json:"productId,omitempty"`

	// Description is set for free-text lines; for catalog lines it is a
	// display snapshot filled on read.
	Description string `db:"description" json:"description,omitempty"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`

	// DiscountPct applies to catalog lines only (0-100)
	DiscountPct types.Money `db:"discount_pct" json:"discountPct"`

	LineTotal types.Money `db:"line_total" json:"lineTotal"`
}

// NewCatalogLine creates a catalog product line.
func NewCatalogLine(productID id.ID, quantity types.Quantity, unitPrice, discountPct types.Money) LineItem {
	line := LineItem{
		LineID:      id.New(),
		Kind:        LineCatalog,
		ProductID:   productID,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		DiscountPct: discountPct,
	}
	line.LineTotal = line.ComputeTotal()
	return line
}

// NewFreeTextLine creates a description-only line.
func NewFreeTextLine(description string, quantity types.Quantity, unitPrice types.Money) LineItem {
	line := LineItem{
		LineID:      id.New(),
		Kind:        LineFreeText,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}
	line.LineTotal = line.ComputeTotal()
	return line
}

// ComputeTotal is the single handling site for per-variant amount math.
func (l LineItem) ComputeTotal() types.Money {
	base := l.UnitPrice.Mul(l.Quantity.Decimal())
	switch l.Kind {
	case LineCatalog:
		// quantity * price * (1 - discount/100)
		factor := types.MustMoney("1").Sub(l.DiscountPct.Div(types.MustMoney("100")))
		return base.Mul(factor).Round(2)
	case LineFreeText:
		// free-text lines carry no discount
		return base.Round(2)
	default:
		return types.Zero()
	}
}

// Validate is the single handling site for per-variant invariants.
func (l LineItem) Validate() error {
	switch l.Kind {
	case LineCatalog:
		if id.IsNil(l.ProductID) {
			return apperror.NewValidation("product is required for catalog line").
				WithDetail("lineNo", l.LineNo)
		}
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("lineNo", l.LineNo)
		}
		if l.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("lineNo", l.LineNo)
		}
		if l.DiscountPct.IsNegative() || l.DiscountPct.GreaterThan(types.MustMoney("100")) {
			return apperror.NewValidation("discount must be between 0 and 100").
				WithDetail("lineNo", l.LineNo).
				WithDetail("discountPct", l.DiscountPct.String())
		}
	case LineFreeText:
		if l.Description == "" {
			return apperror.NewValidation("description is required for free-text line").
				WithDetail("lineNo", l.LineNo)
		}
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("lineNo", l.LineNo)
		}
		if l.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("lineNo", l.LineNo)
		}
	default:
		return apperror.NewValidation(fmt.Sprintf("unknown line kind %q", l.Kind)).
			WithDetail("lineNo", l.LineNo)
	}
	return nil
}
