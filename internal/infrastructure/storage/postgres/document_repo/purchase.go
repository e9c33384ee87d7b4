package document_repo

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/documents/purchase"
	"backoffice/internal/infrastructure/storage/postgres"
)

const (
	purchaseTable      = "doc_purchases"
	purchaseLinesTable = "doc_purchase_lines"
)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	*BaseDocumentRepo[*purchase.Purchase]
}

func NewPurchaseRepo(txm *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			purchaseTable, purchaseLinesTable,
			postgres.ExtractDBColumns[purchase.Purchase](),
			func() *purchase.Purchase { return &purchase.Purchase{} },
			"purchase", purchase.FinalStatus,
		),
	}
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

// GetLineViews loads lines joined with catalog display fields.
func (r *PurchaseRepo) GetLineViews(ctx context.Context, docID id.ID) ([]purchase.LineView, error) {
	var views []purchase.LineView
	if err := r.GetLineViewsInto(ctx, docID, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// List returns headers matching the query, newest first.
func (r *PurchaseRepo) List(ctx context.Context, q purchase.ListQuery) ([]purchase.Purchase, error) {
	var docs []purchase.Purchase
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
