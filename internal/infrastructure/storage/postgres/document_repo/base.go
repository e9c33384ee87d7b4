// Package document_repo provides PostgreSQL implementations of the
// document repositories. One base covers header CRUD and the line
// table; family repos bind it to their tables.
package document_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/infrastructure/storage/postgres"
)

// lineColumns is the column set of every line table.
var lineColumns = []string{
	"line_id", "line_no", "kind", "product_id",
	"description", "quantity", "unit_price", "discount_pct", "line_total",
}

// listParams is the neutral shape of a family list query.
type listParams struct {
	From           *time.Time
	To             *time.Time
	CounterpartyID *id.ID
	PendingOnly    bool
	Limit          int
	Offset         int
}

// BaseDocumentRepo implements header and line storage for one document
// family. T is the pointer header type.
type BaseDocumentRepo[T any] struct {
	txm         *postgres.TxManager
	headerTable string
	linesTable  string
	selectCols  []string
	newFn       func() T
	entityName  string

	// finalStatus closes a document for the pending listing
	finalStatus string
}

func NewBaseDocumentRepo[T any](
	txm *postgres.TxManager,
	headerTable, linesTable string,
	selectCols []string,
	newFn func() T,
	entityName, finalStatus string,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:         txm,
		headerTable: headerTable,
		linesTable:  linesTable,
		selectCols:  selectCols,
		newFn:       newFn,
		entityName:  entityName,
		finalStatus: finalStatus,
	}
}

func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Insert writes the document header. A duplicate number maps to a
// retryable conflict.
func (r *BaseDocumentRepo[T]) Insert(ctx context.Context, doc T) error {
	data := postgres.StructToMap(doc)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in document")
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.Builder().
		Insert(r.headerTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("document number already assigned, retry the operation").
				WithDetail("entity", r.entityName).
				WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.headerTable, err)
	}
	return nil
}

// Update writes the header with optimistic locking. Number and
// creation time never change.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, doc T) error {
	data := postgres.StructToMap(doc)

	docID, ok := data["id"]
	if !ok {
		return fmt.Errorf("document has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("document has no 'version' field or it is not an int")
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "version", "number", "created_at":
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.Builder().
		Update(r.headerTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID}).
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.headerTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, docID)
	}
	return nil
}

// Delete removes the header. Lines must be deleted first.
func (r *BaseDocumentRepo[T]) Delete(ctx context.Context, docID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.headerTable).
		Where(squirrel.Eq{"id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.headerTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, docID.String())
	}
	return nil
}

func (r *BaseDocumentRepo[T]) get(ctx context.Context, docID id.ID, forUpdate bool) (T, error) {
	doc := r.newFn()

	q := r.Builder().
		Select(r.selectCols...).
		From(r.headerTable).
		Where(squirrel.Eq{"id": docID}).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.entityName, docID.String())
		}
		return doc, fmt.Errorf("get %s: %w", r.headerTable, err)
	}
	return doc, nil
}

// GetByID loads the header without lines.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.get(ctx, docID, false)
}

// GetForUpdate loads the header with a row lock. Requires an active
// transaction.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return r.get(ctx, docID, true)
}

// lineSelectCols substitutes a NULL product reference with the zero id
// so free-text lines scan into the tagged union cleanly.
const nilUUID = "'00000000-0000-0000-0000-000000000000'::uuid"

func (r *BaseDocumentRepo[T]) lineSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(
			"line_id", "line_no", "kind",
			"COALESCE(product_id, "+nilUUID+") AS product_id",
			"description", "quantity", "unit_price", "discount_pct", "line_total",
		).
		From(r.linesTable)
}

// GetLines loads the ordered line set of a document.
func (r *BaseDocumentRepo[T]) GetLines(ctx context.Context, docID id.ID) ([]entity.LineItem, error) {
	sql, args, err := r.lineSelect().
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []entity.LineItem
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// GetLineViewsInto loads lines joined with catalog display fields into
// dest, a pointer to a slice of the family's line view type.
func (r *BaseDocumentRepo[T]) GetLineViewsInto(ctx context.Context, docID id.ID, dest any) error {
	sql, args, err := r.Builder().
		Select(
			"l.line_id", "l.line_no", "l.kind",
			"COALESCE(l.product_id, "+nilUUID+") AS product_id",
			"COALESCE(p.name, l.description) AS description",
			"l.quantity", "l.unit_price", "l.discount_pct", "l.line_total",
			"COALESCE(p.code, '') AS product_code",
			"COALESCE(p.name, '') AS product_name",
		).
		From(r.linesTable + " l").
		LeftJoin("cat_products p ON p.id = l.product_id").
		Where(squirrel.Eq{"l.document_id": docID}).
		OrderBy("l.line_no ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.querier(ctx), dest, sql, args...); err != nil {
		return fmt.Errorf("get line views: %w", err)
	}
	return nil
}

// ReplaceLines swaps the persisted line set for the given one in
// order: delete all, multi-row insert.
func (r *BaseDocumentRepo[T]) ReplaceLines(ctx context.Context, docID id.ID, lines []entity.LineItem) error {
	if err := r.DeleteLines(ctx, docID); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(r.linesTable).
		Columns(append([]string{"document_id"}, lineColumns...)...)

	for _, line := range lines {
		q = q.Values(
			docID,
			line.LineID, line.LineNo, line.Kind, nullableID(line.ProductID),
			line.Description, line.Quantity, line.UnitPrice, line.DiscountPct, line.LineTotal,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// DeleteLines removes all lines of a document.
func (r *BaseDocumentRepo[T]) DeleteLines(ctx context.Context, docID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.linesTable).
		Where(squirrel.Eq{"document_id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	return nil
}

// listInto runs a family list query into dest, a pointer to a slice of
// header values.
func (r *BaseDocumentRepo[T]) listInto(ctx context.Context, p listParams, dest any) error {
	q := r.Builder().
		Select(r.selectCols...).
		From(r.headerTable).
		OrderBy("date DESC", "created_at DESC")

	if p.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *p.From})
	}
	if p.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *p.To})
	}
	if p.CounterpartyID != nil {
		q = q.Where(squirrel.Eq{"counterparty_id": *p.CounterpartyID})
	}
	if p.PendingOnly {
		q = q.Where(squirrel.Or{
			squirrel.NotEq{"status": r.finalStatus},
			squirrel.NotEq{"payment_state": entity.PaymentPaid},
		})
	}
	if p.Limit > 0 {
		q = q.Limit(uint64(p.Limit))
	}
	if p.Offset > 0 {
		q = q.Offset(uint64(p.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.querier(ctx), dest, sql, args...); err != nil {
		return fmt.Errorf("list %s: %w", r.headerTable, err)
	}
	return nil
}

// nullableID maps the zero id to SQL NULL so the FK stays clean for
// free-text lines.
func nullableID(v id.ID) any {
	if id.IsNil(v) {
		return nil
	}
	return v
}
