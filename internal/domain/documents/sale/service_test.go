package sale

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/numerator"
	"backoffice/internal/core/types"
	"backoffice/internal/domain"
	"backoffice/internal/domain/catalogs/counterparty"
	"backoffice/internal/domain/catalogs/product"
	"backoffice/internal/domain/registers/cashflow"
	"backoffice/internal/domain/registers/costhistory"
	"backoffice/internal/domain/registers/stock"
	"backoffice/pkg/logger"
)

// --- fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeSaleRepo struct {
	docs  map[id.ID]Sale
	lines map[id.ID][]entity.LineItem
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{
		docs:  make(map[id.ID]Sale),
		lines: make(map[id.ID][]entity.LineItem),
	}
}

func (f *fakeSaleRepo) Insert(ctx context.Context, s *Sale) error {
	f.docs[s.ID] = *s
	return nil
}

// Update enforces the same optimistic-lock predicate as the row update:
// the sent version must match the stored one and the store bumps it.
func (f *fakeSaleRepo) Update(ctx context.Context, s *Sale) error {
	stored, ok := f.docs[s.ID]
	if !ok {
		return apperror.NewNotFound("sale", s.ID)
	}
	if s.Version != stored.Version {
		return apperror.NewConcurrentModification("sale", s.ID)
	}
	updated := *s
	updated.Version = stored.Version + 1
	f.docs[s.ID] = updated
	return nil
}

func (f *fakeSaleRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(f.docs, docID)
	return nil
}

func (f *fakeSaleRepo) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("sale", docID)
	}
	return &doc, nil
}

func (f *fakeSaleRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Sale, error) {
	return f.GetByID(ctx, docID)
}

func (f *fakeSaleRepo) GetLines(ctx context.Context, docID id.ID) ([]entity.LineItem, error) {
	return append([]entity.LineItem(nil), f.lines[docID]...), nil
}

func (f *fakeSaleRepo) GetLineViews(ctx context.Context, docID id.ID) ([]LineView, error) {
	views := make([]LineView, 0, len(f.lines[docID]))
	for _, line := range f.lines[docID] {
		views = append(views, LineView{LineItem: line})
	}
	return views, nil
}

func (f *fakeSaleRepo) ReplaceLines(ctx context.Context, docID id.ID, lines []entity.LineItem) error {
	f.lines[docID] = append([]entity.LineItem(nil), lines...)
	return nil
}

func (f *fakeSaleRepo) DeleteLines(ctx context.Context, docID id.ID) error {
	delete(f.lines, docID)
	return nil
}

func (f *fakeSaleRepo) List(ctx context.Context, q ListQuery) ([]Sale, error) {
	out := make([]Sale, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, doc)
	}
	return out, nil
}

type fakeCounterpartyRepo struct {
	records map[id.ID]*counterparty.Counterparty
}

func (f *fakeCounterpartyRepo) Create(ctx context.Context, c *counterparty.Counterparty) error {
	f.records[c.ID] = c
	return nil
}

func (f *fakeCounterpartyRepo) Update(ctx context.Context, c *counterparty.Counterparty) error {
	f.records[c.ID] = c
	return nil
}

func (f *fakeCounterpartyRepo) GetByID(ctx context.Context, counterpartyID id.ID) (*counterparty.Counterparty, error) {
	c, ok := f.records[counterpartyID]
	if !ok {
		return nil, apperror.NewNotFound("counterparty", counterpartyID)
	}
	return c, nil
}

func (f *fakeCounterpartyRepo) ExistsWithKind(ctx context.Context, counterpartyID id.ID, kind counterparty.Kind) (bool, error) {
	c, ok := f.records[counterpartyID]
	return ok && c.Kind == kind, nil
}

func (f *fakeCounterpartyRepo) List(ctx context.Context, kind counterparty.Kind, filter domain.ListFilter) (*domain.ListResult[*counterparty.Counterparty], error) {
	return &domain.ListResult[*counterparty.Counterparty]{}, nil
}

func (f *fakeCounterpartyRepo) SetDeletionMark(ctx context.Context, counterpartyID id.ID, marked bool) error {
	return nil
}

type fakeProductRepo struct {
	records map[id.ID]*product.Product
}

func (f *fakeProductRepo) Create(ctx context.Context, p *product.Product) error {
	f.records[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Update(ctx context.Context, p *product.Product) error {
	f.records[p.ID] = p
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := f.records[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (f *fakeProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	for _, p := range f.records {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

func (f *fakeProductRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	_, ok := f.records[productID]
	return ok, nil
}

func (f *fakeProductRepo) ExistingIDs(ctx context.Context, productIDs []id.ID) (map[id.ID]bool, error) {
	out := make(map[id.ID]bool, len(productIDs))
	for _, productID := range productIDs {
		if _, ok := f.records[productID]; ok {
			out[productID] = true
		}
	}
	return out, nil
}

func (f *fakeProductRepo) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*product.Product], error) {
	return &domain.ListResult[*product.Product]{}, nil
}

func (f *fakeProductRepo) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	return nil
}

func (f *fakeProductRepo) GetCost(ctx context.Context, productID id.ID) (costhistory.Cost, error) {
	p, ok := f.records[productID]
	if !ok {
		return costhistory.Cost{}, apperror.NewNotFound("product", productID)
	}
	return costhistory.Cost{PerThousand: p.CostPerThousand, PerRoll: p.CostPerRoll}, nil
}

func (f *fakeProductRepo) UpdateCost(ctx context.Context, productID id.ID, cost costhistory.Cost, listPrice types.Money) error {
	p, ok := f.records[productID]
	if !ok {
		return apperror.NewNotFound("product", productID)
	}
	p.CostPerThousand = cost.PerThousand
	p.CostPerRoll = cost.PerRoll
	p.ListPrice = listPrice
	return nil
}

type fakeStockRepo struct {
	entries map[id.ID]types.Quantity
}

func (f *fakeStockRepo) Adjust(ctx context.Context, productID id.ID, delta types.Quantity) (bool, error) {
	current, ok := f.entries[productID]
	if !ok {
		return false, nil
	}
	f.entries[productID] = current + delta
	return true, nil
}

func (f *fakeStockRepo) AdjustFloored(ctx context.Context, productID id.ID, delta types.Quantity) (bool, error) {
	current, ok := f.entries[productID]
	if !ok {
		return false, nil
	}
	next := current + delta
	if next < 0 {
		next = 0
	}
	f.entries[productID] = next
	return true, nil
}

func (f *fakeStockRepo) Get(ctx context.Context, productID id.ID) (stock.Entry, error) {
	quantity, ok := f.entries[productID]
	if !ok {
		return stock.Entry{}, apperror.NewNotFound("stock entry", productID)
	}
	return stock.Entry{ProductID: productID, Quantity: quantity}, nil
}

func (f *fakeStockRepo) Ensure(ctx context.Context, productID id.ID) error {
	if _, ok := f.entries[productID]; !ok {
		f.entries[productID] = 0
	}
	return nil
}

func (f *fakeStockRepo) List(ctx context.Context, filter stock.ListFilter) ([]stock.Entry, error) {
	return nil, nil
}

type fakeCashRepo struct {
	byDocument map[id.ID]*cashflow.CashMovement
}

func (f *fakeCashRepo) Insert(ctx context.Context, m *cashflow.CashMovement) error {
	if m.ReferenceDocumentID != nil {
		f.byDocument[*m.ReferenceDocumentID] = m
	}
	return nil
}

func (f *fakeCashRepo) Update(ctx context.Context, m *cashflow.CashMovement) error {
	if m.ReferenceDocumentID != nil {
		f.byDocument[*m.ReferenceDocumentID] = m
	}
	return nil
}

func (f *fakeCashRepo) Delete(ctx context.Context, movementID id.ID) error {
	for docID, m := range f.byDocument {
		if m.ID == movementID {
			delete(f.byDocument, docID)
		}
	}
	return nil
}

func (f *fakeCashRepo) GetByDocument(ctx context.Context, documentID id.ID) (*cashflow.CashMovement, error) {
	return f.byDocument[documentID], nil
}

func (f *fakeCashRepo) DeleteByDocument(ctx context.Context, documentID id.ID) error {
	delete(f.byDocument, documentID)
	return nil
}

func (f *fakeCashRepo) GetByID(ctx context.Context, movementID id.ID) (*cashflow.CashMovement, error) {
	for _, m := range f.byDocument {
		if m.ID == movementID {
			return m, nil
		}
	}
	return nil, apperror.NewNotFound("cash movement", movementID)
}

func (f *fakeCashRepo) List(ctx context.Context, filter cashflow.ListFilter) ([]cashflow.CashMovement, error) {
	return nil, nil
}

type fakeCostHistoryRepo struct{}

func (fakeCostHistoryRepo) Insert(ctx context.Context, r *costhistory.Record) error { return nil }

func (fakeCostHistoryRepo) LatestBefore(ctx context.Context, productID id.ID, at time.Time) (*costhistory.Record, error) {
	return nil, nil
}

func (fakeCostHistoryRepo) ListByProduct(ctx context.Context, productID id.ID, limit int) ([]costhistory.Record, error) {
	return nil, nil
}

// --- test world ---

type world struct {
	svc       *Service
	repo      *fakeSaleRepo
	cpRepo    *fakeCounterpartyRepo
	stockRepo *fakeStockRepo
	cashRepo  *fakeCashRepo

	clientID  id.ID
	productID id.ID
}

func newWorld(t *testing.T) *world {
	t.Helper()
	log := logger.Default()

	cpRepo := &fakeCounterpartyRepo{records: make(map[id.ID]*counterparty.Counterparty)}
	client := counterparty.New(counterparty.KindClient, "ACME")
	cpRepo.records[client.ID] = client

	productRepo := &fakeProductRepo{records: make(map[id.ID]*product.Product)}
	p := product.New("TAPE-48", "Tape 48mm")
	p.CostPerRoll = types.MustMoney("8.00")
	p.CostPerThousand = types.MustMoney("80")
	productRepo.records[p.ID] = p

	stockRepo := &fakeStockRepo{entries: map[id.ID]types.Quantity{
		p.ID: types.NewQuantityFromFloat64(100),
	}}
	cashRepo := &fakeCashRepo{byDocument: make(map[id.ID]*cashflow.CashMovement)}

	txm := fakeTxManager{}
	stockSvc := stock.NewService(stockRepo, log)
	cashSvc := cashflow.NewService(cashRepo, log)
	historySvc := costhistory.NewService(fakeCostHistoryRepo{}, productRepo, log)
	cpSvc := counterparty.NewService(cpRepo, log)
	productSvc := product.NewService(productRepo, historySvc, stockSvc, txm, log)

	repo := newFakeSaleRepo()
	svc := NewService(ConfigSale, repo, &numerator.MockGenerator{},
		stockSvc, cashSvc, historySvc, cpSvc, productSvc, txm, log)

	return &world{
		svc:       svc,
		repo:      repo,
		cpRepo:    cpRepo,
		stockRepo: stockRepo,
		cashRepo:  cashRepo,
		clientID:  client.ID,
		productID: p.ID,
	}
}

func (w *world) newSale(quantity float64, paid bool) *Sale {
	doc := New(w.clientID)
	doc.ExchangeRate = types.MustMoney("1")
	if paid {
		doc.PaymentState = entity.PaymentPaid
	}
	doc.Lines = []entity.LineItem{
		entity.NewCatalogLine(w.productID, types.NewQuantityFromFloat64(quantity), types.MustMoney("16.00"), types.Zero()),
	}
	return doc
}

// --- tests ---

func TestCreate_PostsAllProjections(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(10, true)

	require.NoError(t, w.svc.Create(context.Background(), doc))

	assert.Equal(t, "SAL-00001", doc.Number)
	assert.Equal(t, ConfigSale.DefaultStatus, doc.Status)

	// Header and lines persisted.
	stored, err := w.svc.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)

	// Stock decremented by the sold quantity.
	assert.Equal(t, types.NewQuantityFromFloat64(90), w.stockRepo.entries[w.productID])

	// Paid document projects exactly one movement referencing it.
	m := w.cashRepo.byDocument[doc.ID]
	require.NotNil(t, m)
	assert.Equal(t, cashflow.TypeSale, m.Type)
	assert.Equal(t, "SAL-00001", m.Reference)
	assert.True(t, m.AmountLocal.Equal(doc.TotalLocal))
}

func TestCreate_UnpaidProjectsNoMovement(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(5, false)

	require.NoError(t, w.svc.Create(context.Background(), doc))

	assert.Nil(t, w.cashRepo.byDocument[doc.ID])
	assert.Equal(t, types.NewQuantityFromFloat64(95), w.stockRepo.entries[w.productID])
}

func TestCreate_NumbersAreSequential(t *testing.T) {
	w := newWorld(t)

	first := w.newSale(1, false)
	second := w.newSale(1, false)
	require.NoError(t, w.svc.Create(context.Background(), first))
	require.NoError(t, w.svc.Create(context.Background(), second))

	assert.Equal(t, "SAL-00001", first.Number)
	assert.Equal(t, "SAL-00002", second.Number)
}

func TestCreate_DropsInvalidLinesAndRenumbers(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(10, false)
	// Invalid line in the middle: zero quantity.
	doc.Lines = append(doc.Lines, entity.LineItem{
		Kind:      entity.LineCatalog,
		ProductID: w.productID,
		UnitPrice: types.MustMoney("16.00"),
	})
	doc.Lines = append(doc.Lines, entity.NewFreeTextLine("delivery", types.NewQuantityFromFloat64(1), types.MustMoney("5.00")))

	require.NoError(t, w.svc.Create(context.Background(), doc))

	require.Len(t, doc.Lines, 2, "invalid line is dropped, not fatal")
	assert.Equal(t, 1, doc.Lines[0].LineNo)
	assert.Equal(t, 2, doc.Lines[1].LineNo)
	// Totals come from the surviving lines only: 160 + 5.
	assert.True(t, doc.TotalLocal.Equal(types.MustMoney("165.00")), "got %s", doc.TotalLocal)
}

func TestCreate_AllLinesInvalidRejected(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(10, false)
	doc.Lines = []entity.LineItem{{Kind: entity.LineCatalog, ProductID: w.productID}}

	err := w.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreate_UnknownProductRejected(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(1, false)
	doc.Lines = []entity.LineItem{
		entity.NewCatalogLine(id.New(), types.NewQuantityFromFloat64(1), types.MustMoney("10"), types.Zero()),
	}

	err := w.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.Empty(t, w.repo.docs, "nothing persisted on reference failure")
}

func TestCreate_ProviderIsNotAValidClient(t *testing.T) {
	w := newWorld(t)
	provider := counterparty.New(counterparty.KindProvider, "Supplies Inc")
	w.cpRepo.records[provider.ID] = provider

	doc := w.newSale(1, false)
	doc.CounterpartyID = provider.ID

	err := w.svc.Create(context.Background(), doc)
	require.Error(t, err)
}

func TestCreate_SuppliedTotalMismatchRejected(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(10, false) // canonical total 160.00
	doc.TotalLocal = types.MustMoney("150.00")

	err := w.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreate_UnknownStatusRejected(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(1, false)
	doc.Status = "shipped_to_mars"

	err := w.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdate_NumberIsImmutable(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(10, false)
	require.NoError(t, w.svc.Create(context.Background(), doc))

	updated := w.newSale(10, false)
	updated.ID = doc.ID
	updated.Number = "SAL-99999" // caller attempt, must be ignored
	require.NoError(t, w.svc.Update(context.Background(), updated))

	assert.Equal(t, "SAL-00001", updated.Number)
	assert.Equal(t, "SAL-00001", w.repo.docs[doc.ID].Number)
}

func TestUpdate_CarriesStoredVersion(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(10, false)
	require.NoError(t, w.svc.Create(context.Background(), doc))
	require.Equal(t, 1, w.repo.docs[doc.ID].Version)

	// An API update arrives as a freshly built document whose version
	// has nothing to do with the stored row. The service must lock on
	// the stored version, so back-to-back updates both succeed.
	first := w.newSale(8, false)
	first.ID = doc.ID
	require.NoError(t, w.svc.Update(context.Background(), first))
	assert.Equal(t, 2, w.repo.docs[doc.ID].Version)
	assert.Equal(t, 2, first.Version)

	second := w.newSale(6, false)
	second.ID = doc.ID
	require.NoError(t, w.svc.Update(context.Background(), second))
	assert.Equal(t, 3, w.repo.docs[doc.ID].Version)
}

func TestUpdate_RevertsOldStockAppliesNew(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(10, false)
	require.NoError(t, w.svc.Create(context.Background(), doc))
	require.Equal(t, types.NewQuantityFromFloat64(90), w.stockRepo.entries[w.productID])

	updated := w.newSale(4, false)
	updated.ID = doc.ID
	require.NoError(t, w.svc.Update(context.Background(), updated))

	// 90 + 10 (revert) - 4 (apply) = 96
	assert.Equal(t, types.NewQuantityFromFloat64(96), w.stockRepo.entries[w.productID])
}

func TestUpdate_PaymentTransitionDrivesLedger(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(10, false)
	require.NoError(t, w.svc.Create(context.Background(), doc))
	require.Nil(t, w.cashRepo.byDocument[doc.ID])

	// debt -> paid inserts the movement
	paid := w.newSale(10, true)
	paid.ID = doc.ID
	require.NoError(t, w.svc.Update(context.Background(), paid))
	require.NotNil(t, w.cashRepo.byDocument[doc.ID])

	// paid -> debt removes it again
	unpaid := w.newSale(10, false)
	unpaid.ID = doc.ID
	require.NoError(t, w.svc.Update(context.Background(), unpaid))
	assert.Nil(t, w.cashRepo.byDocument[doc.ID])
}

func TestDelete_RemovesAllEffects(t *testing.T) {
	w := newWorld(t)
	doc := w.newSale(10, true)
	require.NoError(t, w.svc.Create(context.Background(), doc))
	require.NotNil(t, w.cashRepo.byDocument[doc.ID])

	require.NoError(t, w.svc.Delete(context.Background(), doc.ID))

	assert.Empty(t, w.repo.docs)
	assert.Empty(t, w.repo.lines)
	assert.Nil(t, w.cashRepo.byDocument[doc.ID])
	assert.Equal(t, types.NewQuantityFromFloat64(100), w.stockRepo.entries[w.productID],
		"stock restored to the pre-sale balance")
}

func TestDelete_UnknownDocument(t *testing.T) {
	w := newWorld(t)

	err := w.svc.Delete(context.Background(), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestQuickSaleConfig(t *testing.T) {
	assert.Equal(t, "delivered", ConfigQuickSale.DefaultStatus)
	assert.True(t, ConfigQuickSale.ValidStatus("ready"))
	assert.False(t, ConfigQuickSale.ValidStatus("ordered"))
	assert.True(t, ConfigSale.ValidStatus("ordered"))
}
