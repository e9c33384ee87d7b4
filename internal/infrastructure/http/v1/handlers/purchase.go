package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/documents/purchase"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler serves the purchase document family.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.DocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToPurchase()
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *PurchaseHandler) Get(c *gin.Context) {
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

func (h *PurchaseHandler) Update(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.DocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToPurchase()
	doc.ID = docID
	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *PurchaseHandler) Delete(c *gin.Context) {
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

func (h *PurchaseHandler) ListRecent(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 50)
	docs, err := h.service.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": docs})
}

func (h *PurchaseHandler) ListPending(c *gin.Context) {
	docs, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": docs})
}

func (h *PurchaseHandler) ListByCounterparty(c *gin.Context) {
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

func (h *PurchaseHandler) ListWithItems(c *gin.Context) {
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
