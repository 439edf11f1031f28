package handler

import (
	"net/http"

	"tookio/internal/dto"
	"tookio/internal/service"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler {
	return &SalesHandler{svc: svc}
}

// Record godoc
// @Summary  Record a multi-line sale; all lines commit or none do
// @Tags     sales
// @Accept   json
// @Produce  json
// @Param    Idempotency-Key header string false "client retry key"
// @Param    body body dto.RecordSaleRequest true "sale"
// @Success  201 {object} dto.SaleResponse
// @Failure  409 {object} apierror.InsufficientStock
// @Router   /v1/sales [post]
func (h *SalesHandler) Record(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	var req dto.RecordSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.IdempotencyKey = c.GetHeader(idempotencyHeader)
	resp, err := h.svc.RecordSale(c.Request.Context(), shopID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SalesHandler) List(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), shopID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) Get(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), shopID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Void restores stock for every line with compensating ledger entries.
func (h *SalesHandler) Void(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.VoidSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.VoidSale(c.Request.Context(), shopID, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
