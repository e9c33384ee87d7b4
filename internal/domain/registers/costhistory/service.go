package costhistory

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/pkg/logger"
)

// CostTolerance absorbs rounding noise when comparing per-roll costs.
var CostTolerance = types.MustMoney("0.0001")

// Markup is the fixed factor applied to cost-per-roll to derive the
// list price whenever the cost basis changes.
var Markup = types.MustMoney("2")

// Repository defines storage for cost history rows.
type Repository interface {
	Insert(ctx context.Context, r *Record) error

	// LatestBefore returns the most recent record with valid_from at or
	// before the given moment, or nil when none exists.
	LatestBefore(ctx context.Context, productID id.ID, at time.Time) (*Record, error)

	ListByProduct(ctx context.Context, productID id.ID, limit int) ([]Record, error)
}

// ProductCosts is the slice of the product store the history needs:
// reading the live cost basis and overwriting it with a new one.
type ProductCosts interface {
	GetCost(ctx context.Context, productID id.ID) (Cost, error)
	UpdateCost(ctx context.Context, productID id.ID, cost Cost, listPrice types.Money) error
}

// Service applies the check-and-append protocol around product cost
// overwrites.
type Service struct {
	repo     Repository
	products ProductCosts
	log      *logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, products ProductCosts, log *logger.Logger) *Service {
	return &Service{repo: repo, products: products, log: log.WithComponent("costhistory"), now: time.Now}
}

// RecordIfChanged compares the new cost basis to the product's live one
// and, when cost-per-roll moved beyond the tolerance, appends a history
// row carrying the previous values, overwrites the live cost fields,
// and recomputes the list price. Returns true when a change was
// recorded. Must run inside the caller's transaction.
func (s *Service) RecordIfChanged(ctx context.Context, productID id.ID, newCost Cost) (bool, error) {
	current, err := s.products.GetCost(ctx, productID)
	if err != nil {
		return false, err
	}

	if newCost.PerRoll.Sub(current.PerRoll).Abs().LessThanOrEqual(CostTolerance) {
		return false, nil
	}

	prev := &Record{
		ID:              id.New(),
		ProductID:       productID,
		ValidFrom:       s.now(),
		CostPerThousand: current.PerThousand,
		CostPerRoll:     current.PerRoll,
	}
	if err := s.repo.Insert(ctx, prev); err != nil {
		return false, apperror.NewDatabase(fmt.Errorf("insert cost history record: %w", err))
	}

	listPrice := newCost.PerRoll.Mul(Markup).Round(2)
	if err := s.products.UpdateCost(ctx, productID, newCost, listPrice); err != nil {
		return false, err
	}

	s.log.WithContext(ctx).Infow("product cost updated",
		"product_id", productID,
		"old_cost_per_roll", current.PerRoll,
		"new_cost_per_roll", newCost.PerRoll,
		"list_price", listPrice)
	return true, nil
}

// RecordPurchaseCost applies a purchase line's unit price as the new
// cost-per-roll, keeping the per-thousand basis as currently stored.
func (s *Service) RecordPurchaseCost(ctx context.Context, productID id.ID, unitPrice types.Money) (bool, error) {
	current, err := s.products.GetCost(ctx, productID)
	if err != nil {
		return false, err
	}
	return s.RecordIfChanged(ctx, productID, Cost{PerThousand: current.PerThousand, PerRoll: unitPrice})
}

// CostAsOf returns the cost basis that was effective for a product at
// the given date: the most recent history record at or before it, or
// the product's current cost when no history predates the date.
func (s *Service) CostAsOf(ctx context.Context, productID id.ID, at time.Time) (Cost, error) {
	rec, err := s.repo.LatestBefore(ctx, productID, at)
	if err != nil {
		return Cost{}, apperror.NewDatabase(fmt.Errorf("look up cost history: %w", err))
	}
	if rec != nil {
		return Cost{PerThousand: rec.CostPerThousand, PerRoll: rec.CostPerRoll}, nil
	}
	return s.products.GetCost(ctx, productID)
}

// History returns the recorded cost changes for a product, newest first.
func (s *Service) History(ctx context.Context, productID id.ID, limit int) ([]Record, error) {
	return s.repo.ListByProduct(ctx, productID, limit)
}
