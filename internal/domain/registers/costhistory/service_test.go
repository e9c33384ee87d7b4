package costhistory

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/pkg/logger"
)

type fakeRepo struct {
	records []Record
}

func (f *fakeRepo) Insert(ctx context.Context, r *Record) error {
	f.records = append(f.records, *r)
	return nil
}

func (f *fakeRepo) LatestBefore(ctx context.Context, productID id.ID, at time.Time) (*Record, error) {
	var best *Record
	for i := range f.records {
		r := f.records[i]
		if r.ProductID != productID || r.ValidFrom.After(at) {
			continue
		}
		if best == nil || r.ValidFrom.After(best.ValidFrom) {
			best = &f.records[i]
		}
	}
	return best, nil
}

func (f *fakeRepo) ListByProduct(ctx context.Context, productID id.ID, limit int) ([]Record, error) {
	out := make([]Record, 0)
	for _, r := range f.records {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidFrom.After(out[j].ValidFrom) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeProducts struct {
	costs      map[id.ID]Cost
	listPrices map[id.ID]types.Money
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{
		costs:      make(map[id.ID]Cost),
		listPrices: make(map[id.ID]types.Money),
	}
}

func (f *fakeProducts) GetCost(ctx context.Context, productID id.ID) (Cost, error) {
	return f.costs[productID], nil
}

func (f *fakeProducts) UpdateCost(ctx context.Context, productID id.ID, cost Cost, listPrice types.Money) error {
	f.costs[productID] = cost
	f.listPrices[productID] = listPrice
	return nil
}

func newTestService(repo *fakeRepo, products *fakeProducts, now time.Time) *Service {
	svc := NewService(repo, products, logger.Default())
	svc.now = func() time.Time { return now }
	return svc
}

func TestRecordIfChanged_AppendsPreviousCost(t *testing.T) {
	repo := &fakeRepo{}
	products := newFakeProducts()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, products, now)

	productID := id.New()
	products.costs[productID] = Cost{
		PerThousand: types.MustMoney("80"),
		PerRoll:     types.MustMoney("8.00"),
	}

	changed, err := svc.RecordIfChanged(context.Background(), productID, Cost{
		PerThousand: types.MustMoney("95"),
		PerRoll:     types.MustMoney("9.50"),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	// History carries the cost that was valid BEFORE the change.
	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, productID, rec.ProductID)
	assert.Equal(t, now, rec.ValidFrom)
	assert.True(t, rec.CostPerRoll.Equal(types.MustMoney("8.00")))
	assert.True(t, rec.CostPerThousand.Equal(types.MustMoney("80")))

	// Live cost is overwritten and the list price repriced at markup.
	assert.True(t, products.costs[productID].PerRoll.Equal(types.MustMoney("9.50")))
	assert.True(t, products.listPrices[productID].Equal(types.MustMoney("19.00")))
}

func TestRecordIfChanged_WithinToleranceIsNoOp(t *testing.T) {
	repo := &fakeRepo{}
	products := newFakeProducts()
	svc := newTestService(repo, products, time.Now())

	productID := id.New()
	products.costs[productID] = Cost{
		PerThousand: types.MustMoney("80"),
		PerRoll:     types.MustMoney("8.00"),
	}

	changed, err := svc.RecordIfChanged(context.Background(), productID, Cost{
		PerThousand: types.MustMoney("80"),
		PerRoll:     types.MustMoney("8.00005"),
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, repo.records)
	assert.True(t, products.costs[productID].PerRoll.Equal(types.MustMoney("8.00")),
		"live cost must stay untouched")
}

func TestRecordPurchaseCost_KeepsPerThousandBasis(t *testing.T) {
	repo := &fakeRepo{}
	products := newFakeProducts()
	svc := newTestService(repo, products, time.Now())

	productID := id.New()
	products.costs[productID] = Cost{
		PerThousand: types.MustMoney("80"),
		PerRoll:     types.MustMoney("8.00"),
	}

	changed, err := svc.RecordPurchaseCost(context.Background(), productID, types.MustMoney("8.75"))
	require.NoError(t, err)
	assert.True(t, changed)

	cost := products.costs[productID]
	assert.True(t, cost.PerRoll.Equal(types.MustMoney("8.75")))
	assert.True(t, cost.PerThousand.Equal(types.MustMoney("80")))
}

func TestCostAsOf(t *testing.T) {
	repo := &fakeRepo{}
	products := newFakeProducts()
	svc := newTestService(repo, products, time.Now())

	productID := id.New()
	products.costs[productID] = Cost{
		PerThousand: types.MustMoney("100"),
		PerRoll:     types.MustMoney("10.00"),
	}

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	repo.records = []Record{
		{ID: id.New(), ProductID: productID, ValidFrom: jan, CostPerThousand: types.MustMoney("70"), CostPerRoll: types.MustMoney("7.00")},
		{ID: id.New(), ProductID: productID, ValidFrom: mar, CostPerThousand: types.MustMoney("85"), CostPerRoll: types.MustMoney("8.50")},
	}

	t.Run("between records picks the earlier one", func(t *testing.T) {
		cost, err := svc.CostAsOf(context.Background(), productID, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, cost.PerRoll.Equal(types.MustMoney("7.00")))
	})

	t.Run("after the last record picks it", func(t *testing.T) {
		cost, err := svc.CostAsOf(context.Background(), productID, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, cost.PerRoll.Equal(types.MustMoney("8.50")))
	})

	t.Run("before any history falls back to live cost", func(t *testing.T) {
		cost, err := svc.CostAsOf(context.Background(), productID, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, cost.PerRoll.Equal(types.MustMoney("10.00")))
	})
}
