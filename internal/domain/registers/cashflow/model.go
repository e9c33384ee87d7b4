// Package cashflow maintains the cash movement ledger, both the rows
// projected from document payment states and manually entered ones.
package cashflow

import (
	"fmt"
	"time"

	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// MovementType classifies a ledger row.
type MovementType string

const (
	TypeSale      MovementType = "sale"
	TypePurchase  MovementType = "purchase"
	TypeManualIn  MovementType = "manual_in"
	TypeManualOut MovementType = "manual_out"
)

func ValidMovementType(t MovementType) bool {
	switch t {
	case TypeSale, TypePurchase, TypeManualIn, TypeManualOut:
		return true
	}
	return false
}

// IsManual reports whether the type denotes a manually entered row.
func (t MovementType) IsManual() bool {
	return t == TypeManualIn || t == TypeManualOut
}

// CashMovement is a single row in the cash ledger. Document-projected
// rows carry ReferenceDocumentID; manual rows never do.
type CashMovement struct {
	ID                  id.ID        `db:"id" json:"id"`
	Date                time.Time    `db:"date" json:"date"`
	Type                MovementType `db:"type" json:"type"`
	Subtype             string       `db:"subtype" json:"subtype"`
	Reference           string       `db:"reference" json:"reference"`
	CounterpartyID      id.ID        `db:"counterparty_id" json:"counterpartyId"`
	AmountForeign       types.Money  `db:"amount_foreign" json:"amountForeign"`
	AmountLocal         types.Money  `db:"amount_local" json:"amountLocal"`
	ExchangeRate        types.Money  `db:"exchange_rate" json:"exchangeRate"`
	Notes               string       `db:"notes" json:"notes,omitempty"`
	ReferenceDocumentID *id.ID       `db:"reference_document_id" json:"referenceDocumentId,omitempty"`
	CreatedAt           time.Time    `db:"created_at" json:"createdAt"`
}

// Validate checks a manual movement before insert.
func (m *CashMovement) Validate() error {
	if !ValidMovementType(m.Type) {
		return fmt.Errorf("unknown movement type %q", m.Type)
	}
	if m.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if m.ExchangeRate.LessThanOrEqual(types.Zero()) {
		return fmt.Errorf("exchange rate must be positive")
	}
	if m.AmountForeign.LessThanOrEqual(types.Zero()) {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}
