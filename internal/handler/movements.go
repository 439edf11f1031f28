package handler

import (
	"net/http"

	"tookio/internal/dto"
	"tookio/internal/service"

	"github.com/gin-gonic/gin"
)

type MovementsHandler struct{ svc service.MovementService }

func NewMovementsHandler(svc service.MovementService) *MovementsHandler {
	return &MovementsHandler{svc: svc}
}

// Record godoc
// @Summary  Record a manual stock movement (in, out or adjustment)
// @Tags     movements
// @Accept   json
// @Produce  json
// @Param    id   path string true "item id"
// @Param    body body dto.MovementRequest true "movement"
// @Success  201 {object} dto.MovementResponse
// @Failure  409 {object} apierror.InsufficientStock
// @Router   /v1/items/{id}/movements [post]
func (h *MovementsHandler) Record(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordMovement(c.Request.Context(), shopID, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *MovementsHandler) List(c *gin.Context) {
	shopID, ok := shopScope(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var filter dto.MovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), shopID, itemID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
