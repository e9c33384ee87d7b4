package cashflow

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/pkg/logger"
)

// DocumentRef carries the fields of a document that the ledger mirrors.
// The caller must pass the header values as finally persisted.
type DocumentRef struct {
	DocumentID     id.ID
	Type           MovementType
	Subtype        string
	Reference      string
	Date           time.Time
	CounterpartyID id.ID
	AmountForeign  types.Money
	AmountLocal    types.Money
	ExchangeRate   types.Money
	Paid           bool
}

// Service projects document payment states into the ledger and manages
// manual movements.
type Service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log.WithComponent("cashflow")}
}

// Reconcile brings the ledger in line with a document's payment state.
// A paid document owns exactly one movement row; anything else owns
// none. Must run in the same transaction as the header write, after it.
func (s *Service) Reconcile(ctx context.Context, ref DocumentRef) error {
	existing, err := s.repo.GetByDocument(ctx, ref.DocumentID)
	if err != nil {
		return apperror.NewDatabase(fmt.Errorf("load movement for document: %w", err))
	}

	switch {
	case ref.Paid && existing == nil:
		m := &CashMovement{
			ID:                  id.New(),
			Date:                ref.Date,
			Type:                ref.Type,
			Subtype:             ref.Subtype,
			Reference:           ref.Reference,
			CounterpartyID:      ref.CounterpartyID,
			AmountForeign:       ref.AmountForeign,
			AmountLocal:         ref.AmountLocal,
			ExchangeRate:        ref.ExchangeRate,
			ReferenceDocumentID: &ref.DocumentID,
			CreatedAt:           time.Now(),
		}
		if err := s.repo.Insert(ctx, m); err != nil {
			return apperror.NewDatabase(fmt.Errorf("insert projected movement: %w", err))
		}
		s.log.WithContext(ctx).Infow("cash movement created",
			"document_id", ref.DocumentID, "reference", ref.Reference)

	case ref.Paid && existing != nil:
		existing.Date = ref.Date
		existing.Subtype = ref.Subtype
		existing.Reference = ref.Reference
		existing.CounterpartyID = ref.CounterpartyID
		existing.AmountForeign = ref.AmountForeign
		existing.AmountLocal = ref.AmountLocal
		existing.ExchangeRate = ref.ExchangeRate
		if err := s.repo.Update(ctx, existing); err != nil {
			return apperror.NewDatabase(fmt.Errorf("update projected movement: %w", err))
		}

	case !ref.Paid && existing != nil:
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return apperror.NewDatabase(fmt.Errorf("delete projected movement: %w", err))
		}
		s.log.WithContext(ctx).Infow("cash movement removed",
			"document_id", ref.DocumentID, "reference", ref.Reference)

	default:
		// not paid, no movement: nothing to do
	}
	return nil
}

// RemoveForDocument deletes the projected movement when its document is
// being deleted. Safe to call when no movement exists.
func (s *Service) RemoveForDocument(ctx context.Context, documentID id.ID) error {
	if err := s.repo.DeleteByDocument(ctx, documentID); err != nil {
		return apperror.NewDatabase(fmt.Errorf("delete movement for document: %w", err))
	}
	return nil
}

// RecordManual inserts a manually entered movement. Manual rows are
// never tied to a document and are untouched by Reconcile.
func (s *Service) RecordManual(ctx context.Context, m *CashMovement) error {
	if !m.Type.IsManual() {
		return apperror.NewValidation("manual movements must be manual_in or manual_out")
	}
	if err := m.Validate(); err != nil {
		return apperror.NewValidation(err.Error())
	}
	if id.IsNil(m.ID) {
		m.ID = id.New()
	}
	m.ReferenceDocumentID = nil
	m.AmountLocal = m.AmountForeign.Mul(m.ExchangeRate).Round(2)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return apperror.NewDatabase(fmt.Errorf("insert manual movement: %w", err))
	}
	return nil
}

// DeleteManual removes a manual movement by id. Projected rows are
// refused so the ledger stays consistent with its document.
func (s *Service) DeleteManual(ctx context.Context, movementID id.ID) error {
	m, err := s.repo.GetByID(ctx, movementID)
	if err != nil {
		return err
	}
	if m.ReferenceDocumentID != nil {
		return apperror.NewConflict("movement is projected from a document, edit the document instead")
	}
	return s.repo.Delete(ctx, movementID)
}

// List returns ledger rows for the given filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]CashMovement, error) {
	return s.repo.List(ctx, filter)
}
