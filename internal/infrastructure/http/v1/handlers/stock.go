package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/registers/stock"
)

// StockHandler exposes the derived stock register. Entries are
// maintained by document postings, so there are no write endpoints.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

func (h *StockHandler) List(c *gin.Context) {
	filter := stock.ListFilter{
		ExcludeZero: c.Query("excludeZero") == "true",
		Limit:       h.ParseIntQuery(c, "limit", 100),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}

	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// ListLow handles GET /low?threshold=N, listing entries at or below
// the threshold.
func (h *StockHandler) ListLow(c *gin.Context) {
	raw := c.DefaultQuery("threshold", "10")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid threshold").WithDetail("threshold", raw))
		return
	}

	entries, err := h.service.ListLow(c.Request.Context(), types.NewQuantityFromFloat64(v))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// OnHand handles GET /:id, returning the balance for one product.
// Products without a stock entry report zero.
func (h *StockHandler) OnHand(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	quantity, err := h.service.OnHand(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"productId": productID, "quantity": quantity})
}
