package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	"backoffice/internal/domain/catalogs/counterparty"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// CounterpartyHandler serves both catalog kinds. The kind is fixed by
// the route group (clients or providers), not by a query parameter.
type CounterpartyHandler struct {
	*BaseHandler
	service *counterparty.Service
	kind    counterparty.Kind
}

func NewCounterpartyHandler(base *BaseHandler, service *counterparty.Service, kind counterparty.Kind) *CounterpartyHandler {
	return &CounterpartyHandler{BaseHandler: base, service: service, kind: kind}
}

func (h *CounterpartyHandler) Create(c *gin.Context) {
	var req dto.CounterpartyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cp := req.ToEntity()
	cp.Kind = h.kind
	if err := h.service.Create(c.Request.Context(), cp); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cp.ID.String())
}

func (h *CounterpartyHandler) Get(c *gin.Context) {
	counterpartyID, ok := h.PathID(c)
	if !ok {
		return
	}

	cp, err := h.service.GetByID(c.Request.Context(), counterpartyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if cp.Kind != h.kind {
		h.Error(c, apperror.NewNotFound("counterparty", counterpartyID))
		return
	}
	h.OK(c, cp)
}

func (h *CounterpartyHandler) Update(c *gin.Context) {
	counterpartyID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.CounterpartyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(c.Request.Context(), counterpartyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if existing.Kind != h.kind {
		h.Error(c, apperror.NewNotFound("counterparty", counterpartyID))
		return
	}
	req.ApplyTo(existing)
	existing.Kind = h.kind

	if err := h.service.Update(c.Request.Context(), existing); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, existing)
}

func (h *CounterpartyHandler) List(c *gin.Context) {
	var req dto.CatalogListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.service.List(c.Request.Context(), h.kind, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		Pagination: dto.NewPaginationResponse(req.Page, req.PageSize, result.TotalCount),
	})
}

func (h *CounterpartyHandler) Delete(c *gin.Context) {
	counterpartyID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), counterpartyID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CounterpartyHandler) Restore(c *gin.Context) {
	counterpartyID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Restore(c.Request.Context(), counterpartyID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
