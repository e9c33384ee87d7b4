package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/registers/cashflow"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// CashflowHandler exposes the cash movement ledger. Document-driven
// rows are read-only here; only manual movements can be created or
// deleted through the API.
type CashflowHandler struct {
	*BaseHandler
	service *cashflow.Service
}

func NewCashflowHandler(base *BaseHandler, service *cashflow.Service) *CashflowHandler {
	return &CashflowHandler{BaseHandler: base, service: service}
}

func (h *CashflowHandler) CreateManual(c *gin.Context) {
	var req dto.ManualMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m := req.ToEntity()
	if err := h.service.RecordManual(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m.ID.String())
}

func (h *CashflowHandler) DeleteManual(c *gin.Context) {
	movementID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteManual(c.Request.Context(), movementID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CashflowHandler) List(c *gin.Context) {
	var req dto.MovementListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	movements, err := h.service.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": movements})
}
