// Package register_repo provides PostgreSQL implementations of the
// register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/registers/stock"
	"backoffice/internal/infrastructure/storage/postgres"
)

const stockTable = "reg_stock_entries"

// StockRepo implements stock.Repository on a single balance table.
// Quantities are stored as scaled integers matching types.Quantity.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ stock.Repository = (*StockRepo)(nil)

// Adjust applies a signed delta to the product's quantity.
func (r *StockRepo) Adjust(ctx context.Context, productID id.ID, delta types.Quantity) (bool, error) {
	sql := `UPDATE ` + stockTable + `
		SET quantity = quantity + $2, updated_at = now()
		WHERE product_id = $1`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, productID, delta.Int64Scaled())
	if err != nil {
		return false, fmt.Errorf("adjust stock: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// AdjustFloored applies a delta clamping the result at zero.
func (r *StockRepo) AdjustFloored(ctx context.Context, productID id.ID, delta types.Quantity) (bool, error) {
	sql := `UPDATE ` + stockTable + `
		SET quantity = GREATEST(quantity + $2, 0), updated_at = now()
		WHERE product_id = $1`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, productID, delta.Int64Scaled())
	if err != nil {
		return false, fmt.Errorf("adjust stock floored: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Get returns the entry for one product.
func (r *StockRepo) Get(ctx context.Context, productID id.ID) (stock.Entry, error) {
	sql, args, err := r.builder.
		Select("product_id", "quantity", "updated_at").
		From(stockTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return stock.Entry{}, fmt.Errorf("build query: %w", err)
	}

	var entry stock.Entry
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &entry, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Entry{}, apperror.NewNotFound(stockTable, productID.String())
		}
		return stock.Entry{}, fmt.Errorf("get stock entry: %w", err)
	}
	return entry, nil
}

// Ensure creates a zero row for the product if none exists.
func (r *StockRepo) Ensure(ctx context.Context, productID id.ID) error {
	sql := `INSERT INTO ` + stockTable + ` (product_id, quantity, updated_at)
		VALUES ($1, 0, now())
		ON CONFLICT (product_id) DO NOTHING`

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, productID); err != nil {
		return fmt.Errorf("ensure stock entry: %w", err)
	}
	return nil
}

// List returns stock entries matching the filter.
func (r *StockRepo) List(ctx context.Context, filter stock.ListFilter) ([]stock.Entry, error) {
	q := r.builder.
		Select("product_id", "quantity", "updated_at").
		From(stockTable).
		OrderBy("quantity ASC")

	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}
	if filter.MaxQuantity != nil {
		q = q.Where(squirrel.LtOrEq{"quantity": filter.MaxQuantity.Int64Scaled()})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": 0})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []stock.Entry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock entries: %w", err)
	}
	return entries, nil
}
