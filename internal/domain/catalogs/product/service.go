package product

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain"
	"backoffice/internal/domain/registers/costhistory"
	"backoffice/internal/domain/registers/stock"
	"backoffice/pkg/logger"
)

// Service handles product CRUD. Edits that move the cost basis go
// through the cost history protocol so past margins stay recoverable.
type Service struct {
	repo    Repository
	history *costhistory.Service
	stock   *stock.Service
	txm     tx.Manager
	hooks   *domain.HookRegistry[*Product]
	log     *logger.Logger
}

func NewService(repo Repository, history *costhistory.Service, st *stock.Service, txm tx.Manager, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		history: history,
		stock:   st,
		txm:     txm,
		hooks:   domain.NewHookRegistry[*Product](),
		log:     log.WithComponent("product"),
	}
}

// Hooks exposes the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Product] { return s.hooks }

// Create registers a product and opens a zero stock entry for it.
// List price defaults from cost-per-roll when not supplied.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if p.ListPrice.IsZero() && p.CostPerRoll.IsPositive() {
		p.ListPrice = p.CostPerRoll.Mul(costhistory.Markup).Round(2)
	}
	if err := s.hooks.RunBeforeCreate(ctx, p); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.stock.EnsureEntry(ctx, p.ID)
	})
	if err != nil {
		return err
	}

	s.log.WithContext(ctx).Infow("product created", "product_id", p.ID, "code", p.Code)
	return s.hooks.RunAfterCreate(ctx, p)
}

// Update persists a product edit. When the cost basis moved, the old
// values are appended to history and the list price is recomputed,
// all within one transaction with the row update.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.RunBeforeUpdate(ctx, p); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		recorded, err := s.history.RecordIfChanged(ctx, p.ID, p.Cost())
		if err != nil {
			return err
		}
		if recorded {
			// RecordIfChanged already wrote cost fields and list
			// price; reload them so the row update does not undo it.
			fresh, err := s.repo.GetByID(ctx, p.ID)
			if err != nil {
				return err
			}
			p.CostPerThousand = fresh.CostPerThousand
			p.CostPerRoll = fresh.CostPerRoll
			p.ListPrice = fresh.ListPrice
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return err
	}

	return s.hooks.RunAfterUpdate(ctx, p)
}

// GetByID returns a product or a not-found error.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetByCode returns a product by its catalog code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Product, error) {
	return s.repo.GetByCode(ctx, code)
}

// ExistingIDs reports which of the given ids belong to active
// products. Backs the reference checks in the document services.
func (s *Service) ExistingIDs(ctx context.Context, productIDs []id.ID) (map[id.ID]bool, error) {
	return s.repo.ExistingIDs(ctx, productIDs)
}

// List returns products matching the filter.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}

// CostHistory returns recorded cost changes, newest first.
func (s *Service) CostHistory(ctx context.Context, productID id.ID, limit int) ([]costhistory.Record, error) {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.history.History(ctx, productID, limit)
}

// Delete marks a product deleted. Documents keep referencing it, so
// rows are never physically removed.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.hooks.RunBeforeDelete(ctx, p); err != nil {
		return err
	}
	if err := s.repo.SetDeletionMark(ctx, productID, true); err != nil {
		return err
	}
	return s.hooks.RunAfterDelete(ctx, p)
}

// Restore clears the deletion mark.
func (s *Service) Restore(ctx context.Context, productID id.ID) error {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return err
	}
	return s.repo.SetDeletionMark(ctx, productID, false)
}

