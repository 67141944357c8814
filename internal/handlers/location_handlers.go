package handlers

import (
	"log/slog"
	"net/http"

	"haventory/internal/common"
	"haventory/internal/models"
	"haventory/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type LocationHandlers struct {
	inventoryService services.InventoryService
	log              *slog.Logger
}

func NewLocationHandlers(inventoryService services.InventoryService, log *slog.Logger) *LocationHandlers {
	return &LocationHandlers{
		inventoryService: inventoryService,
		log:              log,
	}
}

// CreateLocation handles POST /locations
func (h *LocationHandlers) CreateLocation(c echo.Context) error {
	var req models.CreateLocationRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		return common.SendError(c, h.log, "location.create", err)
	}
	parentID, err := models.ParseOptionalID(req.ParentID, "parent_id")
	if err != nil {
		return common.SendError(c, h.log, "location.create", err)
	}

	loc, err := h.inventoryService.CreateLocation(c.Request().Context(), req.Name, parentID, req.AreaID)
	if err != nil {
		return common.SendError(c, h.log, "location.create", err)
	}
	return c.JSON(http.StatusCreated, loc)
}

// GetLocation handles GET /locations/:id
func (h *LocationHandlers) GetLocation(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendError(c, h.log, "location.get", err)
	}
	loc, err := h.inventoryService.GetLocation(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, h.log, "location.get", err)
	}
	return c.JSON(http.StatusOK, loc)
}

// ListLocations handles GET /locations, ordered by path.
func (h *LocationHandlers) ListLocations(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"locations": h.inventoryService.ListLocations(c.Request().Context()),
	})
}

// LocationTree handles GET /locations/tree
func (h *LocationHandlers) LocationTree(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"nodes": h.inventoryService.LocationTree(c.Request().Context()),
	})
}

// UpdateLocation handles PATCH /locations/:id (rename, re-parent, area)
func (h *LocationHandlers) UpdateLocation(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendError(c, h.log, "location.update", err)
	}
	var req models.UpdateLocationRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		return common.SendError(c, h.log, "location.update", err)
	}
	update, err := req.ToUpdate()
	if err != nil {
		return common.SendError(c, h.log, "location.update", err)
	}
	return h.applyUpdate(c, "location.update", id, update)
}

// MoveSubtree handles POST /locations/:id/move-subtree
func (h *LocationHandlers) MoveSubtree(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendError(c, h.log, "location.move_subtree", err)
	}
	var req models.MoveLocationRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		return common.SendError(c, h.log, "location.move_subtree", err)
	}
	update, err := req.ToUpdate()
	if err != nil {
		return common.SendError(c, h.log, "location.move_subtree", err)
	}
	return h.applyUpdate(c, "location.move_subtree", id, update)
}

func (h *LocationHandlers) applyUpdate(c echo.Context, op string, id uuid.UUID, update models.LocationUpdate) error {
	loc, err := h.inventoryService.UpdateLocation(c.Request().Context(), id, update)
	if err != nil {
		return common.SendError(c, h.log, op, err)
	}
	return c.JSON(http.StatusOK, loc)
}

// DeleteLocation handles DELETE /locations/:id
func (h *LocationHandlers) DeleteLocation(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendError(c, h.log, "location.delete", err)
	}
	if err := h.inventoryService.DeleteLocation(c.Request().Context(), id); err != nil {
		return common.SendError(c, h.log, "location.delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}
