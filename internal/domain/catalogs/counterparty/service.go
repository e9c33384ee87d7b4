package counterparty

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/pkg/logger"
)

// Service handles counterparty CRUD and backs the reference checks the
// document services perform before writing.
type Service struct {
	repo  Repository
	hooks *domain.HookRegistry[*Counterparty]
	log   *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		hooks: domain.NewHookRegistry[*Counterparty](),
		log:   log.WithComponent("counterparty"),
	}
}

func (s *Service) Hooks() *domain.HookRegistry[*Counterparty] { return s.hooks }

func (s *Service) Create(ctx context.Context, c *Counterparty) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.RunBeforeCreate(ctx, c); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	s.log.WithContext(ctx).Infow("counterparty created", "counterparty_id", c.ID, "kind", c.Kind)
	return s.hooks.RunAfterCreate(ctx, c)
}

func (s *Service) Update(ctx context.Context, c *Counterparty) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.RunBeforeUpdate(ctx, c); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return err
	}
	return s.hooks.RunAfterUpdate(ctx, c)
}

func (s *Service) GetByID(ctx context.Context, counterpartyID id.ID) (*Counterparty, error) {
	return s.repo.GetByID(ctx, counterpartyID)
}

// ExistsWithKind reports whether an active counterparty of the given
// kind exists. Marked-deleted rows do not qualify.
func (s *Service) ExistsWithKind(ctx context.Context, counterpartyID id.ID, kind Kind) (bool, error) {
	return s.repo.ExistsWithKind(ctx, counterpartyID, kind)
}

func (s *Service) List(ctx context.Context, kind Kind, filter domain.ListFilter) (*domain.ListResult[*Counterparty], error) {
	return s.repo.List(ctx, kind, filter)
}

func (s *Service) Delete(ctx context.Context, counterpartyID id.ID) error {
	c, err := s.repo.GetByID(ctx, counterpartyID)
	if err != nil {
		return err
	}
	if err := s.hooks.RunBeforeDelete(ctx, c); err != nil {
		return err
	}
	if err := s.repo.SetDeletionMark(ctx, counterpartyID, true); err != nil {
		return err
	}
	return s.hooks.RunAfterDelete(ctx, c)
}

func (s *Service) Restore(ctx context.Context, counterpartyID id.ID) error {
	if _, err := s.repo.GetByID(ctx, counterpartyID); err != nil {
		return err
	}
	return s.repo.SetDeletionMark(ctx, counterpartyID, false)
}
