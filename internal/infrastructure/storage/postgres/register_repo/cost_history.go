package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/registers/costhistory"
	"backoffice/internal/infrastructure/storage/postgres"
)

const costHistoryTable = "reg_cost_history"

// CostHistoryRepo implements costhistory.Repository. Rows are
// append-only; there is no update or delete path.
type CostHistoryRepo struct {
	txm        *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

func NewCostHistoryRepo(txm *postgres.TxManager) *CostHistoryRepo {
	return &CostHistoryRepo{
		txm:        txm,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[costhistory.Record](),
	}
}

var _ costhistory.Repository = (*CostHistoryRepo)(nil)

func (r *CostHistoryRepo) Insert(ctx context.Context, rec *costhistory.Record) error {
	sql, args, err := r.builder.
		Insert(costHistoryTable).
		SetMap(postgres.StructToMap(rec)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cost history: %w", err)
	}
	return nil
}

// LatestBefore returns the newest record at or before the moment, or
// nil when the product has no history that old.
func (r *CostHistoryRepo) LatestBefore(ctx context.Context, productID id.ID, at time.Time) (*costhistory.Record, error) {
	sql, args, err := r.builder.
		Select(r.selectCols...).
		From(costHistoryTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.LtOrEq{"valid_from": at}).
		OrderBy("valid_from DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec costhistory.Record
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest before: %w", err)
	}
	return &rec, nil
}

func (r *CostHistoryRepo) ListByProduct(ctx context.Context, productID id.ID, limit int) ([]costhistory.Record, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(costHistoryTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("valid_from DESC")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []costhistory.Record
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list cost history: %w", err)
	}
	return records, nil
}
