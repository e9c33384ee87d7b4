package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/documents/sale"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// SaleHandler serves one sale family. The router mounts one instance
// for regular sales and one for quick sales.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// Create handles POST /.
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.DocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToSale()
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Get handles GET /:id.
func (h *SaleHandler) Get(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetDetailed(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Update handles PUT /:id. The payload carries the full line set.
func (h *SaleHandler) Update(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.DocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToSale()
	doc.ID = docID
	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Delete handles DELETE /:id.
func (h *SaleHandler) Delete(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListRecent handles GET /.
func (h *SaleHandler) ListRecent(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 50)
	docs, err := h.service.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": docs})
}

// ListPending handles GET /pending.
func (h *SaleHandler) ListPending(c *gin.Context) {
	docs, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": docs})
}

// ListByCounterparty handles GET /by-counterparty/:id.
func (h *SaleHandler) ListByCounterparty(c *gin.Context) {
	counterpartyID, ok := h.PathID(c)
	if !ok {
		return
	}

	var rng dto.DateRangeRequest
	if !h.BindQuery(c, &rng) {
		return
	}
	rng.Defaults()

	docs, err := h.service.ListByCounterparty(c.Request.Context(), counterpartyID, rng.From, rng.To)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": docs})
}

// ListWithItems handles GET /with-items.
func (h *SaleHandler) ListWithItems(c *gin.Context) {
	var rng dto.DateRangeRequest
	if !h.BindQuery(c, &rng) {
		return
	}
	rng.Defaults()

	docs, err := h.service.ListWithItems(c.Request.Context(), rng.From, rng.To)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": docs})
}
