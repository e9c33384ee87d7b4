package dto

import (
	"time"

	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/registers/cashflow"
)

// ManualMovementRequest creates a manual ledger row.
type ManualMovementRequest struct {
	Date           time.Time   `json:"date" binding:"required"`
	Type           string      `json:"type" binding:"required,oneof=manual_in manual_out"`
	Subtype        string      `json:"subtype,omitempty"`
	Reference      string      `json:"reference,omitempty"`
	CounterpartyID string      `json:"counterpartyId,omitempty"`
	AmountForeign  types.Money `json:"amountForeign" binding:"required"`
	ExchangeRate   types.Money `json:"exchangeRate" binding:"required"`
	Notes          string      `json:"notes,omitempty"`
}

func (r *ManualMovementRequest) ToEntity() *cashflow.CashMovement {
	counterpartyID, _ := id.Parse(r.CounterpartyID)
	return &cashflow.CashMovement{
		Date:           r.Date,
		Type:           cashflow.MovementType(r.Type),
		Subtype:        r.Subtype,
		Reference:      r.Reference,
		CounterpartyID: counterpartyID,
		AmountForeign:  r.AmountForeign,
		ExchangeRate:   r.ExchangeRate,
		Notes:          r.Notes,
	}
}

// MovementListRequest narrows ledger listings.
type MovementListRequest struct {
	DateRangeRequest
	Types          []string `form:"type"`
	CounterpartyID string   `form:"counterpartyId"`
	Limit          int      `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ToFilter converts the query into the register filter.
func (r *MovementListRequest) ToFilter() cashflow.ListFilter {
	r.Defaults()
	filter := cashflow.ListFilter{
		From:  &r.From,
		To:    &r.To,
		Limit: r.Limit,
	}
	for _, t := range r.Types {
		filter.Types = append(filter.Types, cashflow.MovementType(t))
	}
	if r.CounterpartyID != "" {
		if cpID, err := id.Parse(r.CounterpartyID); err == nil {
			filter.CounterpartyID = &cpID
		}
	}
	return filter
}
