package handler

import (
	"net/http"

	"tookio/internal/dto"
	"tookio/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	catalog   service.CatalogService
	reconcile service.ReconcileService
}

func NewInventoryHandler(catalog service.CatalogService, reconcile service.ReconcileService) *InventoryHandler {
	return &InventoryHandler{catalog: catalog, reconcile: reconcile}
}

// Alerts lists active items at or below their low-stock threshold.
func (h *InventoryHandler) Alerts(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	alerts, err := h.catalog.LowStock(c.Request.Context(), shopID)
	if err != nil {
		respondError(c, err)
		return
	}
	if alerts == nil {
		alerts = []dto.LowStockAlert{}
	}
	c.JSON(http.StatusOK, alerts)
}

// Reconcile compares every item's cached stock with its ledger sum.
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	resp, err := h.reconcile.ReconcileShop(c.Request.Context(), shopID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
