package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/pkg/logger"
)

// fakeRepo mimics the SQL semantics: Adjust touches existing rows only,
// AdjustFloored clamps at zero.
type fakeRepo struct {
	entries map[id.ID]types.Quantity
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entries: make(map[id.ID]types.Quantity)}
}

func (f *fakeRepo) Adjust(ctx context.Context, productID id.ID, delta types.Quantity) (bool, error) {
	current, ok := f.entries[productID]
	if !ok {
		return false, nil
	}
	f.entries[productID] = current + delta
	return true, nil
}

func (f *fakeRepo) AdjustFloored(ctx context.Context, productID id.ID, delta types.Quantity) (bool, error) {
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

func (f *fakeRepo) Get(ctx context.Context, productID id.ID) (Entry, error) {
	quantity, ok := f.entries[productID]
	if !ok {
		return Entry{}, apperror.NewNotFound("stock entry", productID)
	}
	return Entry{ProductID: productID, Quantity: quantity, UpdatedAt: time.Now()}, nil
}

func (f *fakeRepo) Ensure(ctx context.Context, productID id.ID) error {
	if _, ok := f.entries[productID]; !ok {
		f.entries[productID] = 0
	}
	return nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	out := make([]Entry, 0, len(f.entries))
	for productID, quantity := range f.entries {
		if filter.MaxQuantity != nil && quantity > *filter.MaxQuantity {
			continue
		}
		out = append(out, Entry{ProductID: productID, Quantity: quantity})
	}
	return out, nil
}

func TestDeltasFromLines(t *testing.T) {
	productID := id.New()
	lines := []entity.LineItem{
		entity.NewCatalogLine(productID, types.NewQuantityFromFloat64(3), types.MustMoney("10"), types.Zero()),
		entity.NewFreeTextLine("setup fee", types.NewQuantityFromFloat64(1), types.MustMoney("25")),
	}

	t.Run("outgoing negates quantities", func(t *testing.T) {
		deltas := DeltasFromLines(lines, -1)
		require.Len(t, deltas, 1, "free-text lines contribute nothing")
		assert.Equal(t, productID, deltas[0].ProductID)
		assert.Equal(t, types.NewQuantityFromFloat64(-3), deltas[0].Delta)
	})

	t.Run("incoming keeps quantities", func(t *testing.T) {
		deltas := DeltasFromLines(lines, 1)
		require.Len(t, deltas, 1)
		assert.Equal(t, types.NewQuantityFromFloat64(3), deltas[0].Delta)
	})
}

func TestApply(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())
	productID := id.New()
	repo.entries[productID] = types.NewQuantityFromFloat64(10)

	err := svc.Apply(context.Background(), []Adjustment{
		{ProductID: productID, Delta: types.NewQuantityFromFloat64(-4)},
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(6), repo.entries[productID])
}

func TestApply_MissingEntrySkipped(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())

	// Unknown product must not fail the posting transaction.
	err := svc.Apply(context.Background(), []Adjustment{
		{ProductID: id.New(), Delta: types.NewQuantityFromFloat64(-1)},
	})
	require.NoError(t, err)
	assert.Empty(t, repo.entries)
}

func TestApply_AllowsNegativeBalance(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())
	productID := id.New()
	repo.entries[productID] = types.NewQuantityFromFloat64(2)

	err := svc.Apply(context.Background(), []Adjustment{
		{ProductID: productID, Delta: types.NewQuantityFromFloat64(-5)},
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(-3), repo.entries[productID])
}

func TestRevert_FlooredAtZero(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())
	productID := id.New()
	repo.entries[productID] = types.NewQuantityFromFloat64(3)

	// Reverting a sale of 5 would go to 8; reverting a purchase of 5
	// (delta +5, revert -5) from 3 floors at zero.
	err := svc.Revert(context.Background(), []Adjustment{
		{ProductID: productID, Delta: types.NewQuantityFromFloat64(5)},
	})
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), repo.entries[productID])
}

func TestRevert_SaleRestoresStock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())
	productID := id.New()
	repo.entries[productID] = types.NewQuantityFromFloat64(3)

	err := svc.Revert(context.Background(), []Adjustment{
		{ProductID: productID, Delta: types.NewQuantityFromFloat64(-5)},
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(8), repo.entries[productID])
}

func TestOnHand(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())
	productID := id.New()
	repo.entries[productID] = types.NewQuantityFromFloat64(7)

	quantity, err := svc.OnHand(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(7), quantity)

	// Product without a stock row reports zero, not an error.
	quantity, err = svc.OnHand(context.Background(), id.New())
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), quantity)
}

func TestListLow(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.Default())
	low := id.New()
	high := id.New()
	repo.entries[low] = types.NewQuantityFromFloat64(2)
	repo.entries[high] = types.NewQuantityFromFloat64(50)

	entries, err := svc.ListLow(context.Background(), types.NewQuantityFromFloat64(10))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, low, entries[0].ProductID)
}
