package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/registers/cashflow"
	"backoffice/internal/infrastructure/storage/postgres"
)

const cashMovementsTable = "reg_cash_movements"

// CashMovementRepo implements cashflow.Repository.
type CashMovementRepo struct {
	txm        *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

func NewCashMovementRepo(txm *postgres.TxManager) *CashMovementRepo {
	return &CashMovementRepo{
		txm:        txm,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[cashflow.CashMovement](),
	}
}

var _ cashflow.Repository = (*CashMovementRepo)(nil)

func (r *CashMovementRepo) Insert(ctx context.Context, m *cashflow.CashMovement) error {
	data := postgres.StructToMap(m)

	sql, args, err := r.builder.
		Insert(cashMovementsTable).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (r *CashMovementRepo) Update(ctx context.Context, m *cashflow.CashMovement) error {
	data := postgres.StructToMap(m)
	delete(data, "id")
	delete(data, "created_at")

	sql, args, err := r.builder.
		Update(cashMovementsTable).
		SetMap(data).
		Where(squirrel.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(cashMovementsTable, m.ID.String())
	}
	return nil
}

func (r *CashMovementRepo) Delete(ctx context.Context, movementID id.ID) error {
	sql, args, err := r.builder.
		Delete(cashMovementsTable).
		Where(squirrel.Eq{"id": movementID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(cashMovementsTable, movementID.String())
	}
	return nil
}

// GetByDocument returns the projected movement for a document, or nil.
func (r *CashMovementRepo) GetByDocument(ctx context.Context, documentID id.ID) (*cashflow.CashMovement, error) {
	sql, args, err := r.builder.
		Select(r.selectCols...).
		From(cashMovementsTable).
		Where(squirrel.Eq{"reference_document_id": documentID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m cashflow.CashMovement
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement by document: %w", err)
	}
	return &m, nil
}

func (r *CashMovementRepo) DeleteByDocument(ctx context.Context, documentID id.ID) error {
	sql, args, err := r.builder.
		Delete(cashMovementsTable).
		Where(squirrel.Eq{"reference_document_id": documentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete movement by document: %w", err)
	}
	return nil
}

func (r *CashMovementRepo) GetByID(ctx context.Context, movementID id.ID) (*cashflow.CashMovement, error) {
	sql, args, err := r.builder.
		Select(r.selectCols...).
		From(cashMovementsTable).
		Where(squirrel.Eq{"id": movementID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m cashflow.CashMovement
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(cashMovementsTable, movementID.String())
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &m, nil
}

func (r *CashMovementRepo) List(ctx context.Context, filter cashflow.ListFilter) ([]cashflow.CashMovement, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(cashMovementsTable).
		OrderBy("date DESC", "created_at DESC")

	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.To})
	}
	if len(filter.Types) > 0 {
		q = q.Where(squirrel.Eq{"type": filter.Types})
	}
	if filter.CounterpartyID != nil {
		q = q.Where(squirrel.Eq{"counterparty_id": *filter.CounterpartyID})
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

	var movements []cashflow.CashMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}
