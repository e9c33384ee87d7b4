package entity

import (
	"context"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// PaymentState describes how a document has been settled.
type PaymentState string

const (
	PaymentPaid    PaymentState = "paid"
	PaymentDebt    PaymentState = "debt"
	PaymentPartial PaymentState = "partial"
	PaymentDeposit PaymentState = "deposit"
)

// ValidPaymentState reports whether s is a known payment state.
func ValidPaymentState(s PaymentState) bool {
	switch s {
	case PaymentPaid, PaymentDebt, PaymentPartial, PaymentDeposit:
		return true
	}
	return false
}

// TotalTolerance is the allowed drift between a client-supplied local
// total and the canonical computation before the document is rejected.
var TotalTolerance = types.MustMoney("0.01")

// Document is the shared header for business documents (Sale, QuickSale,
// Purchase). Amounts are kept in the foreign invoice currency plus the
// local-currency equivalent derived through the exchange rate.
type Document struct {
	BaseDocument

	// Number is the business-facing document number, unique within its
	// family and immutable once assigned.
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// CounterpartyID references the client (sales) or provider (purchases)
	CounterpartyID id.ID `db:"counterparty_id" json:"counterpartyId"`

	// Status is informational workflow state; allowed labels are
	// per-family configuration, transitions are not enforced.
	Status string `db:"status" json:"status"`

	// PaymentState drives the cash movement projection
	PaymentState PaymentState `db:"payment_state" json:"paymentState"`

	// Amounts in foreign currency
	Subtotal    types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount   types.Money `db:"tax_amount" json:"taxAmount"`
	OtherAmount types.Money `db:"other_amount" json:"otherAmount"`

	// TotalForeign = Subtotal + TaxAmount + OtherAmount
	TotalForeign types.Money `db:"total_foreign" json:"totalForeign"`

	// ExchangeRate converts foreign to local currency, must be > 0
	ExchangeRate types.Money `db:"exchange_rate" json:"exchangeRate"`

	// TotalLocal = TotalForeign * ExchangeRate (canonical, recomputed)
	TotalLocal types.Money `db:"total_local" json:"totalLocal"`

	// Notes is an optional user comment
	Notes string `db:"notes" json:"notes,omitempty"`

	// Lines is the ordered table part; persisted separately.
	Lines []LineItem `db:"-" json:"lines"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument(counterpartyID id.ID) Document {
	return Document{
		BaseDocument:   NewBaseDocument(),
		Date:           time.Now().UTC(),
		CounterpartyID: counterpartyID,
		PaymentState:   PaymentDebt,
		Lines:          make([]LineItem, 0),
	}
}

// IsPaid reports whether the document should project a cash movement.
func (d *Document) IsPaid() bool {
	return d.PaymentState == PaymentPaid
}

// AddLine appends a line, assigns its number and recalculates totals.
func (d *Document) AddLine(line LineItem) {
	line.LineNo = len(d.Lines) + 1
	if id.IsNil(line.LineID) {
		line.LineID = id.New()
	}
	line.LineTotal = line.ComputeTotal()
	d.Lines = append(d.Lines, line)
	d.RecalculateTotals()
}

// RecalculateTotals rebuilds the header amounts from the lines using the
// canonical computation: subtotal from line totals, foreign total from
// subtotal + tax + other, local total through the exchange rate.
func (d *Document) RecalculateTotals() {
	subtotal := types.Zero()
	for i := range d.Lines {
		d.Lines[i].LineTotal = d.Lines[i].ComputeTotal()
		subtotal = subtotal.Add(d.Lines[i].LineTotal)
	}
	d.Subtotal = subtotal
	d.TotalForeign = subtotal.Add(d.TaxAmount).Add(d.OtherAmount)
	d.TotalLocal = d.TotalForeign.Mul(d.ExchangeRate).Round(2)
}

// CheckSuppliedTotal validates a client-supplied local total against the
// canonical computation. A zero supplied total means "compute for me".
func (d *Document) CheckSuppliedTotal(supplied types.Money) error {
	if supplied.IsZero() {
		return nil
	}
	canonical := d.TotalForeign.Mul(d.ExchangeRate).Round(2)
	if supplied.Sub(canonical).Abs().GreaterThan(TotalTolerance) {
		return apperror.NewValidation("local total does not match foreign total times exchange rate").
			WithDetail("supplied", supplied.String()).
			WithDetail("computed", canonical.String())
	}
	return nil
}

// Validate implements Validatable for the shared header fields.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.CounterpartyID) {
		return apperror.NewValidation("counterparty is required").
			WithDetail("field", "counterpartyId")
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	if !d.ExchangeRate.IsPositive() {
		return apperror.NewValidation("exchange rate must be positive").
			WithDetail("field", "exchangeRate").
			WithDetail("value", d.ExchangeRate.String())
	}

	if !ValidPaymentState(d.PaymentState) {
		return apperror.NewValidation("unknown payment state").
			WithDetail("field", "paymentState").
			WithDetail("value", string(d.PaymentState))
	}

	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	return nil
}

// CatalogLines returns only the lines that reference catalog products.
// These are the lines that drive stock and cost-history projections.
func (d *Document) CatalogLines() []LineItem {
	out := make([]LineItem, 0, len(d.Lines))
	for _, line := range d.Lines {
		if line.Kind == LineCatalog {
			out = append(out, line)
		}
	}
	return out
}
