package document_repo

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/documents/sale"
	"backoffice/internal/infrastructure/storage/postgres"
)

// Table pairs per sale family. Quick sales live in their own tables so
// each family keeps an independent number space and retention.
const (
	saleTable          = "doc_sales"
	saleLinesTable     = "doc_sale_lines"
	quickSaleTable     = "doc_quick_sales"
	quickSaleLinesTable = "doc_quick_sale_lines"
)

// SaleRepo implements sale.Repository for one family.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale]
}

func newSaleRepo(txm *postgres.TxManager, headerTable, linesTable, entityName, finalStatus string) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			headerTable, linesTable,
			postgres.ExtractDBColumns[sale.Sale](),
			func() *sale.Sale { return &sale.Sale{} },
			entityName, finalStatus,
		),
	}
}

// NewSaleRepo creates the repository for regular sales.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return newSaleRepo(txm, saleTable, saleLinesTable, sale.ConfigSale.Name, sale.ConfigSale.FinalStatus)
}

// NewQuickSaleRepo creates the repository for quick sales.
func NewQuickSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return newSaleRepo(txm, quickSaleTable, quickSaleLinesTable, sale.ConfigQuickSale.Name, sale.ConfigQuickSale.FinalStatus)
}

var _ sale.Repository = (*SaleRepo)(nil)

// GetLineViews loads lines joined with catalog display fields.
func (r *SaleRepo) GetLineViews(ctx context.Context, docID id.ID) ([]sale.LineView, error) {
	var views []sale.LineView
	if err := r.GetLineViewsInto(ctx, docID, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// List returns headers matching the query, newest first.
func (r *SaleRepo) List(ctx context.Context, q sale.ListQuery) ([]sale.Sale, error) {
	var docs []sale.Sale
	err := r.listInto(ctx, listParams{
		From:           q.From,
		To:             q.To,
		CounterpartyID: q.CounterpartyID,
		PendingOnly:    q.PendingOnly,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}, &docs)
	if err != nil {
		return nil, err
	}
	return docs, nil
}
