package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/catalogs/product"
	"backoffice/internal/domain/registers/costhistory"
	"backoffice/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

var _ product.Repository = (*ProductRepo)(nil)

// ExistingIDs returns which of the given ids belong to active products.
func (r *ProductRepo) ExistingIDs(ctx context.Context, productIDs []id.ID) (map[id.ID]bool, error) {
	out := make(map[id.ID]bool, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	sql, args, err := r.Builder().
		Select("id").
		From(productTable).
		Where(squirrel.Eq{"id": productIDs}).
		Where(squirrel.Eq{"deletion_mark": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var found []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &found, sql, args...); err != nil {
		return nil, fmt.Errorf("existing ids: %w", err)
	}
	for _, pid := range found {
		out[pid] = true
	}
	return out, nil
}

// GetCost reads the live cost basis. Runs on the caller's transaction
// when one is active.
func (r *ProductRepo) GetCost(ctx context.Context, productID id.ID) (costhistory.Cost, error) {
	sql, args, err := r.Builder().
		Select("cost_per_thousand", "cost_per_roll").
		From(productTable).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return costhistory.Cost{}, fmt.Errorf("build query: %w", err)
	}

	var cost costhistory.Cost
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&cost.PerThousand, &cost.PerRoll)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return costhistory.Cost{}, apperror.NewNotFound(productTable, productID.String())
		}
		return costhistory.Cost{}, fmt.Errorf("get cost: %w", err)
	}
	return cost, nil
}

// UpdateCost overwrites the live cost fields and the list price.
func (r *ProductRepo) UpdateCost(ctx context.Context, productID id.ID, cost costhistory.Cost, listPrice types.Money) error {
	sql, args, err := r.Builder().
		Update(productTable).
		Set("cost_per_thousand", cost.PerThousand).
		Set("cost_per_roll", cost.PerRoll).
		Set("list_price", listPrice).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update cost: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update cost: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(productTable, productID.String())
	}
	return nil
}
