package handler

import (
	"net/http"

	"tookio/internal/dto"
	"tookio/internal/service"

	"github.com/gin-gonic/gin"
)

type ItemsHandler struct{ svc service.CatalogService }

func NewItemsHandler(svc service.CatalogService) *ItemsHandler {
	return &ItemsHandler{svc: svc}
}

// Create godoc
// @Summary  Create an item, optionally with opening stock
// @Tags     items
// @Accept   json
// @Produce  json
// @Param    body body dto.CreateItemRequest true "item"
// @Success  201 {object} dto.ItemResponse
// @Router   /v1/items [post]
func (h *ItemsHandler) Create(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	var req dto.CreateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateItem(c.Request.Context(), shopID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ItemsHandler) List(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	var filter dto.ItemFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListItems(c.Request.Context(), shopID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemsHandler) Get(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetItem(c.Request.Context(), shopID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update changes metadata only. Stock is never writable here.
func (h *ItemsHandler) Update(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateMetadata(c.Request.Context(), shopID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemsHandler) Archive(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.ArchiveItem(c.Request.Context(), shopID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ItemsHandler) Reactivate(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.ReactivateItem(c.Request.Context(), shopID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type pageQuery struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=50" validate:"min=1,max=200"`
}

func (h *ItemsHandler) PriceHistory(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.PriceHistory(c.Request.Context(), shopID, id, q.Page, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
