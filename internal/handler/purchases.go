package handler

import (
	"net/http"

	"tookio/internal/dto"
	"tookio/internal/service"

	"github.com/gin-gonic/gin"
)

type PurchasesHandler struct{ svc service.PurchaseService }

func NewPurchasesHandler(svc service.PurchaseService) *PurchasesHandler {
	return &PurchasesHandler{svc: svc}
}

func (h *PurchasesHandler) Record(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	var req dto.RecordPurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.IdempotencyKey = c.GetHeader(idempotencyHeader)
	resp, err := h.svc.RecordPurchase(c.Request.Context(), shopID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PurchasesHandler) List(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	var filter dto.PurchaseFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListPurchases(c.Request.Context(), shopID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PurchasesHandler) Get(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetPurchase(c.Request.Context(), shopID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
