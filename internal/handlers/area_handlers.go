package handlers

import (
	"log/slog"
	"net/http"

	"haventory/internal/common"
	"haventory/internal/services"

	"github.com/labstack/echo/v4"
)

type AreaHandlers struct {
	areaService services.AreaService
	log         *slog.Logger
}

func NewAreaHandlers(areaService services.AreaService, log *slog.Logger) *AreaHandlers {
	return &AreaHandlers{areaService: areaService, log: log}
}

// ListAreas handles GET /areas
func (h *AreaHandlers) ListAreas(c echo.Context) error {
	areas, err := h.areaService.List(c.Request().Context())
	if err != nil {
		return common.SendError(c, h.log, "area.list", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"areas": areas})
}

// ResolveArea handles GET /areas/resolve?name=. Unknown names resolve to a null area_id.
func (h *AreaHandlers) ResolveArea(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return common.SendValidationError(c, "name", "name is required")
	}
	id, err := h.areaService.ResolveID(c.Request().Context(), name)
	if err != nil {
		return common.SendError(c, h.log, "area.resolve", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"name": name, "area_id": id})
}
