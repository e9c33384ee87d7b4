package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/catalogs/counterparty"
	"backoffice/internal/infrastructure/storage/postgres"
)

const counterpartyTable = "cat_counterparties"

// CounterpartyRepo implements counterparty.Repository.
type CounterpartyRepo struct {
	*BaseCatalogRepo[*counterparty.Counterparty]
}

func NewCounterpartyRepo(txm *postgres.TxManager) *CounterpartyRepo {
	return &CounterpartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			counterpartyTable,
			postgres.ExtractDBColumns[counterparty.Counterparty](),
			func() *counterparty.Counterparty { return &counterparty.Counterparty{} },
		),
	}
}

var _ counterparty.Repository = (*CounterpartyRepo)(nil)

// ExistsWithKind checks for an active counterparty of the given kind.
func (r *CounterpartyRepo) ExistsWithKind(ctx context.Context, counterpartyID id.ID, kind counterparty.Kind) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(counterpartyTable).
		Where(squirrel.Eq{"id": counterpartyID}).
		Where(squirrel.Eq{"kind": kind}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists with kind: %w", err)
	}
	return true, nil
}

// List retrieves counterparties of one kind.
func (r *CounterpartyRepo) List(ctx context.Context, kind counterparty.Kind, filter domain.ListFilter) (*domain.ListResult[*counterparty.Counterparty], error) {
	return r.listWith(ctx, filter, func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		return q.Where(squirrel.Eq{"kind": kind})
	})
}
