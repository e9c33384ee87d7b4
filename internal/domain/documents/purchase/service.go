package purchase

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

// Statuses for the purchase workflow. Like sales, labels are
// informational and transitions are not enforced.
var (
	Statuses      = []string{"ordered", "in_transit", "received"}
	DefaultStatus = "ordered"
	FinalStatus   = "received"
)

func validStatus(label string) bool {
	for _, s := range Statuses {
		if s == label {
			return true
		}
	}
	return false
}

// Service runs the consistency protocol for purchases. On top of the
// stock and ledger effects shared with sales, receiving a catalog line
// whose unit price moved the product's cost basis appends a cost
// history record and reprices the product.
type Service struct {
	repo           Repository
	numbers        numerator.Generator
	stock          *stock.Service
	cash           *cashflow.Service
	history        *costhistory.Service
	counterparties *counterparty.Service
	products       *product.Service
	txm            tx.Manager
	hooks          *domain.HookRegistry[*Purchase]
	log            *logger.Logger
}

func NewService(
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
		repo:           repo,
		numbers:        numbers,
		stock:          st,
		cash:           cash,
		history:        history,
		counterparties: counterparties,
		products:       products,
		txm:            txm,
		hooks:          domain.NewHookRegistry[*Purchase](),
		log:            log.WithComponent("purchase"),
	}
}

// Hooks exposes the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Purchase] { return s.hooks }

// Create numbers and persists a purchase, increments stock, applies
// cost changes from the received lines and projects the cash ledger in
// one transaction.
func (s *Service) Create(ctx context.Context, doc *Purchase) error {
	if err := s.prepare(ctx, doc); err != nil {
		return err
	}
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbers.Next(ctx, numerator.FamilyPurchase)
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
		if err := s.stock.Apply(ctx, stock.DeltasFromLines(doc.Lines, 1)); err != nil {
			return err
		}
		if err := s.applyCostChanges(ctx, doc); err != nil {
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

// Update replaces the purchase: old stock increments reverted, the new
// line set applied with its cost effects, ledger reconciled against
// the final header. The number never changes.
func (s *Service) Update(ctx context.Context, doc *Purchase) error {
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
		if err := s.stock.Revert(ctx, stock.DeltasFromLines(oldLines, 1)); err != nil {
			return err
		}
		if err := s.repo.ReplaceLines(ctx, doc.ID, doc.Lines); err != nil {
			return err
		}
		if err := s.stock.Apply(ctx, stock.DeltasFromLines(doc.Lines, 1)); err != nil {
			return err
		}
		if err := s.applyCostChanges(ctx, doc); err != nil {
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

// Delete removes the purchase and reverses its stock increments. Cost
// history rows written when the purchase was received are append-only
// and stay.
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
		if err := s.stock.Revert(ctx, stock.DeltasFromLines(oldLines, 1)); err != nil {
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

// GetByID returns the purchase with its lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Purchase, error) {
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

// GetDetailed returns the purchase enriched with provider and catalog
// display fields.
func (s *Service) GetDetailed(ctx context.Context, docID id.ID) (*Detailed, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, doc, false)
}

// ListRecent returns the newest purchases.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Purchase, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, ListQuery{Limit: limit})
}

// ListPending returns purchases not yet received or not yet settled.
func (s *Service) ListPending(ctx context.Context) ([]Purchase, error) {
	return s.repo.List(ctx, ListQuery{PendingOnly: true})
}

// ListByCounterparty returns purchases from one provider in a date
// range.
func (s *Service) ListByCounterparty(ctx context.Context, counterpartyID id.ID, from, to time.Time) ([]Purchase, error) {
	return s.repo.List(ctx, ListQuery{CounterpartyID: &counterpartyID, From: &from, To: &to})
}

// ListWithItems returns purchases in a date range with enriched lines
// and the cost basis effective at each document's date.
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

// applyCostChanges feeds each catalog line's unit price through the
// cost history protocol. Price moves within the tolerance write
// nothing.
func (s *Service) applyCostChanges(ctx context.Context, doc *Purchase) error {
	for _, line := range doc.CatalogLines() {
		if _, err := s.history.RecordPurchaseCost(ctx, line.ProductID, line.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) prepare(ctx context.Context, doc *Purchase) error {
	doc.Lines = s.normalizeLines(ctx, doc.Lines)

	supplied := doc.TotalLocal
	doc.RecalculateTotals()
	if err := doc.CheckSuppliedTotal(supplied); err != nil {
		return err
	}

	if doc.Status == "" {
		doc.Status = DefaultStatus
	}
	if !validStatus(doc.Status) {
		return apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("value", doc.Status)
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}
	return s.checkReferences(ctx, doc)
}

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

func (s *Service) checkReferences(ctx context.Context, doc *Purchase) error {
	ok, err := s.counterparties.ExistsWithKind(ctx, doc.CounterpartyID, counterparty.KindProvider)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewReferenceInvalid("provider", doc.CounterpartyID)
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

func (s *Service) enrich(ctx context.Context, doc *Purchase, withHistoricalCost bool) (*Detailed, error) {
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

	d := &Detailed{Purchase: *doc, Items: views}
	if cp != nil {
		d.CounterpartyName = cp.Name
	}
	return d, nil
}

func (s *Service) movementRef(doc *Purchase) cashflow.DocumentRef {
	return cashflow.DocumentRef{
		DocumentID:     doc.ID,
		Type:           cashflow.TypePurchase,
		Subtype:        "purchase",
		Reference:      doc.Number,
		Date:           doc.Date,
		CounterpartyID: doc.CounterpartyID,
		AmountForeign:  doc.TotalForeign,
		AmountLocal:    doc.TotalLocal,
		ExchangeRate:   doc.ExchangeRate,
		Paid:           doc.IsPaid(),
	}
}
