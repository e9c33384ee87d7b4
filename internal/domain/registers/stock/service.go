package stock

import (
	"context"
	"fmt"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/pkg/logger"
)

// Service maintains the stock register from document line movements.
type Service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log.WithComponent("stock")}
}

// DeltasFromLines builds signed adjustments from the catalog lines of a
// document. sign is -1 for outgoing documents and +1 for incoming ones.
// Free-text lines carry no product and contribute nothing.
func DeltasFromLines(lines []entity.LineItem, sign int) []Adjustment {
	deltas := make([]Adjustment, 0, len(lines))
	for _, line := range lines {
		if line.Kind != entity.LineCatalog {
			continue
		}
		delta := line.Quantity
		if sign < 0 {
			delta = delta.Neg()
		}
		deltas = append(deltas, Adjustment{ProductID: line.ProductID, Delta: delta})
	}
	return deltas
}

// Apply records adjustments produced by posting a document. A product
// without a stock row is logged and skipped; the caller's transaction
// is not aborted for it.
func (s *Service) Apply(ctx context.Context, deltas []Adjustment) error {
	for _, d := range deltas {
		if d.Delta.IsZero() {
			continue
		}
		applied, err := s.repo.Adjust(ctx, d.ProductID, d.Delta)
		if err != nil {
			return apperror.NewDatabase(fmt.Errorf("adjust stock for product %s: %w", d.ProductID, err))
		}
		if !applied {
			s.log.WithContext(ctx).Warnw("no stock entry for product, adjustment skipped",
				"product_id", d.ProductID, "delta", d.Delta)
		}
	}
	return nil
}

// Revert undoes adjustments previously applied for a document. Deltas
// are negated and the resulting quantity is floored at zero, so stale
// or partially applied history never drives the register negative.
func (s *Service) Revert(ctx context.Context, deltas []Adjustment) error {
	for _, d := range deltas {
		if d.Delta.IsZero() {
			continue
		}
		applied, err := s.repo.AdjustFloored(ctx, d.ProductID, d.Delta.Neg())
		if err != nil {
			return apperror.NewDatabase(fmt.Errorf("revert stock for product %s: %w", d.ProductID, err))
		}
		if !applied {
			s.log.WithContext(ctx).Warnw("no stock entry for product, revert skipped",
				"product_id", d.ProductID, "delta", d.Delta)
		}
	}
	return nil
}

// OnHand returns the current quantity for a product, zero when the
// product has no stock row.
func (s *Service) OnHand(ctx context.Context, productID id.ID) (types.Quantity, error) {
	entry, err := s.repo.Get(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return entry.Quantity, nil
}

// EnsureEntry creates a zero row for a newly registered product.
func (s *Service) EnsureEntry(ctx context.Context, productID id.ID) error {
	return s.repo.Ensure(ctx, productID)
}

// List returns current stock entries.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	return s.repo.List(ctx, filter)
}

// ListLow returns entries at or below the given threshold.
func (s *Service) ListLow(ctx context.Context, threshold types.Quantity) ([]Entry, error) {
	return s.repo.List(ctx, ListFilter{MaxQuantity: &threshold})
}
