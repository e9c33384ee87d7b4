package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

func TestComputeTotal_CatalogWithDiscount(t *testing.T) {
	line := NewCatalogLine(id.New(),
		types.NewQuantityFromFloat64(10),
		types.MustMoney("5.00"),
		types.MustMoney("20"),
	)

	// 10 * 5.00 * 0.8 = 40.00
	assert.True(t, line.LineTotal.Equal(types.MustMoney("40.00")),
		"got %s", line.LineTotal)
}

func TestComputeTotal_CatalogZeroDiscount(t *testing.T) {
	line := NewCatalogLine(id.New(),
		types.NewQuantityFromFloat64(3),
		types.MustMoney("9.99"),
		types.Zero(),
	)

	assert.True(t, line.LineTotal.Equal(types.MustMoney("29.97")),
		"got %s", line.LineTotal)
}

func TestComputeTotal_FreeTextIgnoresDiscount(t *testing.T) {
	line := LineItem{
		Kind:        LineFreeText,
		Description: "delivery",
		Quantity:    types.NewQuantityFromFloat64(1),
		UnitPrice:   types.MustMoney("15.00"),
		DiscountPct: types.MustMoney("50"), // must not apply
	}

	assert.True(t, line.ComputeTotal().Equal(types.MustMoney("15.00")))
}

func TestComputeTotal_FractionalQuantity(t *testing.T) {
	line := NewFreeTextLine("cutting", types.NewQuantityFromFloat64(2.5), types.MustMoney("4.00"))

	assert.True(t, line.LineTotal.Equal(types.MustMoney("10.00")))
}

func TestLineValidate(t *testing.T) {
	productID := id.New()

	tests := []struct {
		name    string
		line    LineItem
		wantErr bool
	}{
		{
			name:    "valid catalog line",
			line:    NewCatalogLine(productID, types.NewQuantityFromFloat64(1), types.MustMoney("10"), types.Zero()),
			wantErr: false,
		},
		{
			name: "catalog line without product",
			line: LineItem{
				Kind:      LineCatalog,
				Quantity:  types.NewQuantityFromFloat64(1),
				UnitPrice: types.MustMoney("10"),
			},
			wantErr: true,
		},
		{
			name:    "catalog line with zero quantity",
			line:    NewCatalogLine(productID, 0, types.MustMoney("10"), types.Zero()),
			wantErr: true,
		},
		{
			name:    "catalog line with negative price",
			line:    NewCatalogLine(productID, types.NewQuantityFromFloat64(1), types.MustMoney("-1"), types.Zero()),
			wantErr: true,
		},
		{
			name:    "catalog line with discount over 100",
			line:    NewCatalogLine(productID, types.NewQuantityFromFloat64(1), types.MustMoney("10"), types.MustMoney("101")),
			wantErr: true,
		},
		{
			name:    "valid free-text line",
			line:    NewFreeTextLine("installation", types.NewQuantityFromFloat64(1), types.MustMoney("50")),
			wantErr: false,
		},
		{
			name:    "free-text line without description",
			line:    NewFreeTextLine("", types.NewQuantityFromFloat64(1), types.MustMoney("50")),
			wantErr: true,
		},
		{
			name:    "unknown kind",
			line:    LineItem{Kind: "mystery", Quantity: types.NewQuantityFromFloat64(1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.line.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
