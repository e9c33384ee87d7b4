package sale

import (
	"context"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/numerator"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain"
	"backoffice/internal/domain/catalogs/counterparty"
	"backoffice/internal/domain/catalogs/product"
	"backoffice/internal/domain/registers/cashflow"
	"backoffice/internal/domain/registers/costhistory"
	"backoffice/internal/domain/registers/stock"
	"backoffice/pkg/logger"
)

// Service runs the full consistency protocol for one sale family:
// every mutation adjusts stock and reconciles the cash ledger inside
// the same transaction as the document write.
type Service struct {
	cfg            FamilyConfig
	repo           Repository
	numbers        numerator.Generator
	stock          *stock.Service
	cash           *cashflow.Service
	history        *costhistory.Service
	counterparties *counterparty.Service
	products       *product.Service
	txm            tx.Manager
	hooks          *domain.HookRegistry[*Sale]
	log            *logger.Logger
}

func NewService(
	cfg FamilyConfig,
	repo Repository,
	numbers numerator.Generator,
	st *stock.Service,
	cash *cashflow.Service,
	history *costhistory.Service,
	counterparties *counterparty.Service,
	products *product.Service,
	txm tx.Manager,
	log *logger.Logger,
) *Service {
	return &Service{
		cfg:            cfg,
		repo:           repo,
		numbers:        numbers,
		stock:          st,
		cash:           cash,
		history:        history,
		counterparties: counterparties,
		products:       products,
		txm:            txm,
		hooks:          domain.NewHookRegistry[*Sale](),
		log:            log.WithComponent(cfg.Name),
	}
}

// Hooks exposes the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Sale] { return s.hooks }

// Family returns the family configuration the service runs with.
func (s *Service) Family() FamilyConfig { return s.cfg }

// Create validates, numbers and persists a new sale, decrements stock
// for its catalog lines and projects the cash ledger, all in one
// transaction. doc.Number is assigned by the generator; a caller-set
// number is ignored.
func (s *Service) Create(ctx context.Context, doc *Sale) error {
	if err := s.prepare(ctx, doc); err != nil {
		return err
	}
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbers.Next(ctx, s.cfg.Numbering)
		if err != nil {
			return err
		}
		doc.Number = number

		if err := s.repo.Insert(ctx, doc); err != nil {
			return err
		}
		if err := s.repo.ReplaceLines(ctx, doc.ID, doc.Lines); err != nil {
			return err
		}
		if err := s.stock.Apply(ctx, stock.DeltasFromLines(doc.Lines, -1)); err != nil {
			return err
		}
		return s.cash.Reconcile(ctx, s.movementRef(doc))
	})
	if err != nil {
		return err
	}

	s.log.WithContext(ctx).Infow("document created",
		"document_id", doc.ID, "number", doc.Number, "total_local", doc.TotalLocal)
	return s.hooks.RunAfterCreate(ctx, doc)
}

// Update re-validates and replaces the document: the old catalog lines
// are reverted from stock, the new set applied, and the ledger
// reconciled against the final header. The document number never
// changes on update.
func (s *Service) Update(ctx context.Context, doc *Sale) error {
	if id.IsNil(doc.ID) {
		return apperror.NewValidation("document id is required")
	}
	if err := s.prepare(ctx, doc); err != nil {
		return err
	}
	if err := s.hooks.RunBeforeUpdate(ctx, doc); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetForUpdate(ctx, doc.ID)
		if err != nil {
			return err
		}
		doc.Number = existing.Number
		doc.CreatedAt = existing.CreatedAt
		// The stored version drives the optimistic lock; the row
		// update increments it.
		doc.SetVersion(existing.Version)
		doc.UpdatedAt = time.Now().UTC()

		oldLines, err := s.repo.GetLines(ctx, doc.ID)
		if err != nil {
			return err
		}
		if err := s.stock.Revert(ctx, stock.DeltasFromLines(oldLines, -1)); err != nil {
			return err
		}
		if err := s.repo.ReplaceLines(ctx, doc.ID, doc.Lines); err != nil {
			return err
		}
		if err := s.stock.Apply(ctx, stock.DeltasFromLines(doc.Lines, -1)); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		doc.SetVersion(existing.Version + 1)
		return s.cash.Reconcile(ctx, s.movementRef(doc))
	})
	if err != nil {
		return err
	}

	s.log.WithContext(ctx).Infow("document updated", "document_id", doc.ID, "number", doc.Number)
	return s.hooks.RunAfterUpdate(ctx, doc)
}

// Delete removes the document and all its effects: stock reverted,
// projected movement deleted, lines and header gone. Deletion is
// physical; the document number is not reissued.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := s.hooks.RunBeforeDelete(ctx, doc); err != nil {
		return err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, docID); err != nil {
			return err
		}
		oldLines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return err
		}
		if err := s.stock.Revert(ctx, stock.DeltasFromLines(oldLines, -1)); err != nil {
			return err
		}
		if err := s.cash.RemoveForDocument(ctx, docID); err != nil {
			return err
		}
		if err := s.repo.DeleteLines(ctx, docID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, docID)
	})
	if err != nil {
		return err
	}

	s.log.WithContext(ctx).Infow("document deleted", "document_id", docID, "number", doc.Number)
	return s.hooks.RunAfterDelete(ctx, doc)
}

// GetByID returns the document with its lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return doc, nil
}

// GetDetailed returns the document enriched with counterparty display
// fields and catalog data per line.
func (s *Service) GetDetailed(ctx context.Context, docID id.ID) (*Detailed, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, doc, false)
}

// ListRecent returns the newest documents of the family.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Sale, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, ListQuery{Limit: limit})
}

// ListPending returns documents with an open status or an unsettled
// payment state.
func (s *Service) ListPending(ctx context.Context) ([]Sale, error) {
	return s.repo.List(ctx, ListQuery{PendingOnly: true})
}

// ListByCounterparty returns documents for one client in a date range.
func (s *Service) ListByCounterparty(ctx context.Context, counterpartyID id.ID, from, to time.Time) ([]Sale, error) {
	return s.repo.List(ctx, ListQuery{CounterpartyID: &counterpartyID, From: &from, To: &to})
}

// ListWithItems returns documents in a date range with enriched lines,
// including the cost basis effective at each document's date. This is
// the margin-reporting read path.
func (s *Service) ListWithItems(ctx context.Context, from, to time.Time) ([]Detailed, error) {
	docs, err := s.repo.List(ctx, ListQuery{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	out := make([]Detailed, 0, len(docs))
	for i := range docs {
		d, err := s.enrich(ctx, &docs[i], true)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// prepare normalizes lines, recomputes totals, validates the header
// and checks references. Runs before the transaction starts so invalid
// requests never open one.
func (s *Service) prepare(ctx context.Context, doc *Sale) error {
	doc.Lines = s.normalizeLines(ctx, doc.Lines)

	supplied := doc.TotalLocal
	doc.RecalculateTotals()
	if err := doc.CheckSuppliedTotal(supplied); err != nil {
		return err
	}

	if doc.Status == "" {
		doc.Status = s.cfg.DefaultStatus
	}
	if !s.cfg.ValidStatus(doc.Status) {
		return apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("value", doc.Status)
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}
	return s.checkReferences(ctx, doc)
}

// normalizeLines drops individually invalid lines with a logged
// warning instead of rejecting the document, then renumbers the
// survivors. Header validation still rejects a document left with no
// lines at all.
func (s *Service) normalizeLines(ctx context.Context, lines []entity.LineItem) []entity.LineItem {
	kept := make([]entity.LineItem, 0, len(lines))
	for i, line := range lines {
		if err := line.Validate(); err != nil {
			s.log.WithContext(ctx).Warnw("skipping invalid line",
				"line_no", i+1, "reason", err.Error())
			continue
		}
		if id.IsNil(line.LineID) {
			line.LineID = id.New()
		}
		line.LineNo = len(kept) + 1
		line.LineTotal = line.ComputeTotal()
		kept = append(kept, line)
	}
	return kept
}

func (s *Service) checkReferences(ctx context.Context, doc *Sale) error {
	ok, err := s.counterparties.ExistsWithKind(ctx, doc.CounterpartyID, counterparty.KindClient)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewReferenceInvalid("client", doc.CounterpartyID)
	}

	catalogLines := doc.CatalogLines()
	if len(catalogLines) == 0 {
		return nil
	}
	ids := make([]id.ID, 0, len(catalogLines))
	for _, line := range catalogLines {
		ids = append(ids, line.ProductID)
	}
	existing, err := s.products.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, line := range catalogLines {
		if !existing[line.ProductID] {
			return apperror.NewReferenceInvalid("product", line.ProductID)
		}
	}
	return nil
}

func (s *Service) enrich(ctx context.Context, doc *Sale, withHistoricalCost bool) (*Detailed, error) {
	cp, err := s.counterparties.GetByID(ctx, doc.CounterpartyID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}

	views, err := s.repo.GetLineViews(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if withHistoricalCost {
		for i := range views {
			if views[i].Kind != entity.LineCatalog {
				continue
			}
			cost, err := s.history.CostAsOf(ctx, views[i].ProductID, doc.Date)
			if err != nil {
				if apperror.IsNotFound(err) {
					continue
				}
				return nil, err
			}
			views[i].CostPerRollAtDate = cost.PerRoll
		}
	}

	d := &Detailed{Sale: *doc, Items: views}
	if cp != nil {
		d.CounterpartyName = cp.Name
	}
	return d, nil
}

func (s *Service) movementRef(doc *Sale) cashflow.DocumentRef {
	return cashflow.DocumentRef{
		DocumentID:     doc.ID,
		Type:           cashflow.TypeSale,
		Subtype:        s.cfg.MovementSubtype,
		Reference:      doc.Number,
		Date:           doc.Date,
		CounterpartyID: doc.CounterpartyID,
		AmountForeign:  doc.TotalForeign,
		AmountLocal:    doc.TotalLocal,
		ExchangeRate:   doc.ExchangeRate,
		Paid:           doc.IsPaid(),
	}
}
