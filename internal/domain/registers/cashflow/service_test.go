package cashflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/pkg/logger"
)

// fakeRepo keeps at most one projected movement per document plus any
// manual rows, enough to drive the reconcile state machine.
type fakeRepo struct {
	byDocument map[id.ID]*CashMovement
	byID       map[id.ID]*CashMovement

	inserted int
	updated  int
	deleted  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byDocument: make(map[id.ID]*CashMovement),
		byID:       make(map[id.ID]*CashMovement),
	}
}

func (f *fakeRepo) Insert(ctx context.Context, m *CashMovement) error {
	f.inserted++
	f.byID[m.ID] = m
	if m.ReferenceDocumentID != nil {
		f.byDocument[*m.ReferenceDocumentID] = m
	}
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, m *CashMovement) error {
	f.updated++
	f.byID[m.ID] = m
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, movementID id.ID) error {
	f.deleted++
	if m, ok := f.byID[movementID]; ok && m.ReferenceDocumentID != nil {
		delete(f.byDocument, *m.ReferenceDocumentID)
	}
	delete(f.byID, movementID)
	return nil
}

func (f *fakeRepo) GetByDocument(ctx context.Context, documentID id.ID) (*CashMovement, error) {
	return f.byDocument[documentID], nil
}

func (f *fakeRepo) DeleteByDocument(ctx context.Context, documentID id.ID) error {
	if m, ok := f.byDocument[documentID]; ok {
		delete(f.byID, m.ID)
		delete(f.byDocument, documentID)
		f.deleted++
	}
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, movementID id.ID) (*CashMovement, error) {
	m, ok := f.byID[movementID]
	if !ok {
		return nil, apperror.NewNotFound("cash movement", movementID)
	}
	return m, nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]CashMovement, error) {
	out := make([]CashMovement, 0, len(f.byID))
	for _, m := range f.byID {
		out = append(out, *m)
	}
	return out, nil
}

func testRef(documentID id.ID, paid bool) DocumentRef {
	return DocumentRef{
		DocumentID:     documentID,
		Type:           TypeSale,
		Subtype:        "sale",
		Reference:      "SAL-00001",
		Date:           time.Now(),
		CounterpartyID: id.New(),
		AmountForeign:  types.MustMoney("100"),
		AmountLocal:    types.MustMoney("100"),
		ExchangeRate:   types.MustMoney("1"),
		Paid:           paid,
	}
}

func TestReconcile_PaidWithoutMovement_Inserts(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())
	documentID := id.New()

	require.NoError(t, svc.Reconcile(context.Background(), testRef(documentID, true)))

	assert.Equal(t, 1, repo.inserted)
	m := repo.byDocument[documentID]
	require.NotNil(t, m)
	assert.Equal(t, TypeSale, m.Type)
	require.NotNil(t, m.ReferenceDocumentID)
	assert.Equal(t, documentID, *m.ReferenceDocumentID)
}

func TestReconcile_PaidWithMovement_UpdatesInPlace(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())
	documentID := id.New()

	require.NoError(t, svc.Reconcile(context.Background(), testRef(documentID, true)))
	originalID := repo.byDocument[documentID].ID

	ref := testRef(documentID, true)
	ref.AmountForeign = types.MustMoney("250")
	ref.AmountLocal = types.MustMoney("250")
	require.NoError(t, svc.Reconcile(context.Background(), ref))

	assert.Equal(t, 1, repo.inserted, "second reconcile must not insert")
	assert.Equal(t, 1, repo.updated)
	m := repo.byDocument[documentID]
	assert.Equal(t, originalID, m.ID, "movement identity is stable across updates")
	assert.True(t, m.AmountForeign.Equal(types.MustMoney("250")))
}

func TestReconcile_UnpaidWithMovement_Deletes(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())
	documentID := id.New()

	require.NoError(t, svc.Reconcile(context.Background(), testRef(documentID, true)))
	require.NoError(t, svc.Reconcile(context.Background(), testRef(documentID, false)))

	assert.Equal(t, 1, repo.deleted)
	assert.Nil(t, repo.byDocument[documentID])
}

func TestReconcile_UnpaidWithoutMovement_NoOp(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())

	require.NoError(t, svc.Reconcile(context.Background(), testRef(id.New(), false)))

	assert.Equal(t, 0, repo.inserted)
	assert.Equal(t, 0, repo.updated)
	assert.Equal(t, 0, repo.deleted)
}

func TestRecordManual(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())

	t.Run("computes local amount and strips document reference", func(t *testing.T) {
		documentID := id.New()
		m := &CashMovement{
			Date:                time.Now(),
			Type:                TypeManualIn,
			AmountForeign:       types.MustMoney("10"),
			ExchangeRate:        types.MustMoney("17.5"),
			ReferenceDocumentID: &documentID,
		}
		require.NoError(t, svc.RecordManual(context.Background(), m))

		assert.Nil(t, m.ReferenceDocumentID)
		assert.True(t, m.AmountLocal.Equal(types.MustMoney("175.00")), "got %s", m.AmountLocal)
		assert.False(t, id.IsNil(m.ID))
	})

	t.Run("rejects projected types", func(t *testing.T) {
		m := &CashMovement{
			Date:          time.Now(),
			Type:          TypeSale,
			AmountForeign: types.MustMoney("10"),
			ExchangeRate:  types.MustMoney("1"),
		}
		err := svc.RecordManual(context.Background(), m)
		require.Error(t, err)
	})
}

func TestDeleteManual_RefusesProjectedRows(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())
	documentID := id.New()

	require.NoError(t, svc.Reconcile(context.Background(), testRef(documentID, true)))
	projected := repo.byDocument[documentID]

	err := svc.DeleteManual(context.Background(), projected.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	// The row survives.
	assert.NotNil(t, repo.byDocument[documentID])
}
