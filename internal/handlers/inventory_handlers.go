package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"haventory/internal/common"
	"haventory/internal/models"
	"haventory/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// InventoryHandlers handles item HTTP requests
type InventoryHandlers struct {
	inventoryService services.InventoryService
	log              *slog.Logger
}

// NewInventoryHandlers creates a new inventory handlers instance
func NewInventoryHandlers(inventoryService services.InventoryService, log *slog.Logger) *InventoryHandlers {
	return &InventoryHandlers{
		inventoryService: inventoryService,
		log:              log,
	}
}

// bindItem decodes an item command whose id comes from the path.
func (h *InventoryHandlers) bindItem(c echo.Context, dst any, ref *models.ItemRef) (uuid.UUID, error) {
	if err := common.Bind(c, dst); err != nil {
		return uuid.Nil, err
	}
	ref.ItemID = strings.TrimSpace(c.Param("id"))
	if err := c.Validate(dst); err != nil {
		return uuid.Nil, err
	}
	return ref.ID()
}

// CreateItem handles POST /items
func (h *InventoryHandlers) CreateItem(c echo.Context) error {
	var req models.CreateItemRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		return common.SendError(c, h.log, "item.create", err)
	}
	payload, err := req.ToCreate()
	if err != nil {
		return common.SendError(c, h.log, "item.create", err)
	}

	item, err := h.inventoryService.CreateItem(c.Request().Context(), payload)
	if err != nil {
		return common.SendError(c, h.log, "item.create", err)
	}
	return c.JSON(http.StatusCreated, item)
}

// GetItem handles GET /items/:id
func (h *InventoryHandlers) GetItem(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendError(c, h.log, "item.get", err)
	}
	item, err := h.inventoryService.GetItem(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, h.log, "item.get", err)
	}
	return c.JSON(http.StatusOK, item)
}

// ListItems handles GET /items. Filters, sort and pagination come from the query string.
func (h *InventoryHandlers) ListItems(c echo.Context) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return common.SendError(c, h.log, "item.list", err)
	}
	page, err := h.inventoryService.ListItems(c.Request().Context(), opts)
	if err != nil {
		return common.SendError(c, h.log, "item.list", err)
	}
	return c.JSON(http.StatusOK, page)
}

func parseListOptions(c echo.Context) (models.ListOptions, error) {
	filter := models.ItemFilter{
		Q:            c.QueryParam("q"),
		TagsAny:      common.QueryList(c, "tags_any"),
		TagsAll:      common.QueryList(c, "tags_all"),
		Category:     c.QueryParam("category"),
		UpdatedAfter: c.QueryParam("updated_after"),
		CreatedAfter: c.QueryParam("created_after"),
	}

	checkedOut, err := common.QueryBool(c, "checked_out")
	if err != nil {
		return models.ListOptions{}, err
	}
	filter.CheckedOut = checkedOut

	for name, dst := range map[string]*bool{"low_stock_only": &filter.LowStockOnly, "include_subtree": &filter.IncludeSubtree} {
		v, err := common.QueryBool(c, name)
		if err != nil {
			return models.ListOptions{}, err
		}
		if v != nil {
			*dst = *v
		}
	}

	if raw := strings.TrimSpace(c.QueryParam("location_id")); raw != "" {
		id, err := models.ParseUUIDv4(raw, "location_id")
		if err != nil {
			return models.ListOptions{}, err
		}
		filter.LocationID = &id
	}

	opts := models.ListOptions{Filter: &filter}

	field, order := c.QueryParam("sort"), c.QueryParam("order")
	if field != "" || order != "" {
		sort := models.DefaultSort()
		if field != "" {
			sort.Field = models.SortField(field)
		}
		if order != "" {
			sort.Order = models.SortOrder(strings.ToLower(order))
		}
		opts.Sort = &sort
	}

	limit, err := common.QueryInt(c, "limit")
	if err != nil {
		return models.ListOptions{}, err
	}
	opts.Limit = limit

	if cursor := c.QueryParam("cursor"); cursor != "" {
		opts.Cursor = &cursor
	}
	return opts, nil
}

// UpdateItem handles PATCH /items/:id
func (h *InventoryHandlers) UpdateItem(c echo.Context) error {
	var req models.UpdateItemRequest
	id, err := h.bindItem(c, &req, &req.ItemRef)
	if err != nil {
		return common.SendError(c, h.log, "item.update", err)
	}
	patch, err := req.ToUpdate()
	if err != nil {
		return common.SendError(c, h.log, "item.update", err)
	}

	item, err := h.inventoryService.UpdateItem(c.Request().Context(), id, patch, req.ExpectedVersion)
	if err != nil {
		return common.SendError(c, h.log, "item.update", err)
	}
	return c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /items/:id?expected_version=N
func (h *InventoryHandlers) DeleteItem(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendError(c, h.log, "item.delete", err)
	}
	expected, err := common.QueryInt(c, "expected_version")
	if err != nil {
		return common.SendError(c, h.log, "item.delete", err)
	}
	if expected != nil && *expected < 1 {
		return common.SendValidationError(c, "expected_version", "expected_version must be greater than or equal to 1")
	}

	if err := h.inventoryService.DeleteItem(c.Request().Context(), id, expected); err != nil {
		return common.SendError(c, h.log, "item.delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AdjustQuantity handles POST /items/:id/adjust-quantity
func (h *InventoryHandlers) AdjustQuantity(c echo.Context) error {
	var req models.AdjustQuantityRequest
	id, err := h.bindItem(c, &req, &req.ItemRef)
	if err != nil {
		return common.SendError(c, h.log, "item.adjust_quantity", err)
	}
	item, err := h.inventoryService.AdjustQuantity(c.Request().Context(), id, *req.Delta, req.ExpectedVersion)
	if err != nil {
		return common.SendError(c, h.log, "item.adjust_quantity", err)
	}
	return c.JSON(http.StatusOK, item)
}

// SetQuantity handles POST /items/:id/set-quantity
func (h *InventoryHandlers) SetQuantity(c echo.Context) error {
	var req models.SetQuantityRequest
	id, err := h.bindItem(c, &req, &req.ItemRef)
	if err != nil {
		return common.SendError(c, h.log, "item.set_quantity", err)
	}
	item, err := h.inventoryService.SetQuantity(c.Request().Context(), id, *req.Quantity, req.ExpectedVersion)
	if err != nil {
		return common.SendError(c, h.log, "item.set_quantity", err)
	}
	return c.JSON(http.StatusOK, item)
}

// CheckOut handles POST /items/:id/check-out
func (h *InventoryHandlers) CheckOut(c echo.Context) error {
	var req models.CheckOutRequest
	id, err := h.bindItem(c, &req, &req.ItemRef)
	if err != nil {
		return common.SendError(c, h.log, "item.check_out", err)
	}
	item, err := h.inventoryService.CheckOut(c.Request().Context(), id, req.DueDate, req.ExpectedVersion)
	if err != nil {
		return common.SendError(c, h.log, "item.check_out", err)
	}
	return c.JSON(http.StatusOK, item)
}

// CheckIn handles POST /items/:id/check-in
func (h *InventoryHandlers) CheckIn(c echo.Context) error {
	var req models.ItemRef
	id, err := h.bindItem(c, &req, &req)
	if err != nil {
		return common.SendError(c, h.log, "item.check_in", err)
	}
	item, err := h.inventoryService.CheckIn(c.Request().Context(), id, req.ExpectedVersion)
	if err != nil {
		return common.SendError(c, h.log, "item.check_in", err)
	}
	return c.JSON(http.StatusOK, item)
}

// AddTags handles POST /items/:id/add-tags
func (h *InventoryHandlers) AddTags(c echo.Context) error {
	var req models.TagsRequest
	id, err := h.bindItem(c, &req, &req.ItemRef)
	if err != nil {
		return common.SendError(c, h.log, "item.add_tags", err)
	}
	item, err := h.inventoryService.AddTags(c.Request().Context(), id, req.Tags, req.ExpectedVersion)
	if err != nil {
		return common.SendError(c, h.log, "item.add_tags", err)
	}
	return c.JSON(http.StatusOK, item)
}

// RemoveTags handles POST /items/:id/remove-tags
func (h *InventoryHandlers) RemoveTags(c echo.Context) error {
	var req models.TagsRequest
	id, err := h.bindItem(c, &req, &req.ItemRef)
	if err != nil {
		return common.SendError(c, h.log, "item.remove_tags", err)
	}
	item, err := h.inventoryService.RemoveTags(c.Request().Context(), id, req.Tags, req.ExpectedVersion)
	if err != nil {
		return common.SendError(c, h.log, "item.remove_tags", err)
	}
	return c.JSON(http.StatusOK, item)
}

// UpdateCustomFields handles POST /items/:id/custom-fields
func (h *InventoryHandlers) UpdateCustomFields(c echo.Context) error {
	var req models.CustomFieldsRequest
	id, err := h.bindItem(c, &req, &req.ItemRef)
	if err != nil {
		return common.SendError(c, h.log, "item.custom_fields", err)
	}
	item, err := h.inventoryService.UpdateCustomFields(c.Request().Context(), id, req.Set, req.Unset, req.ExpectedVersion)
	if err != nil {
		return common.SendError(c, h.log, "item.custom_fields", err)
	}
	return c.JSON(http.StatusOK, item)
}

// SetLowStockThreshold handles POST /items/:id/low-stock-threshold
func (h *InventoryHandlers) SetLowStockThreshold(c echo.Context) error {
	var req models.LowStockThresholdRequest
	id, err := h.bindItem(c, &req, &req.ItemRef)
	if err != nil {
		return common.SendError(c, h.log, "item.low_stock_threshold", err)
	}
	if !req.LowStockThreshold.Set {
		return common.SendValidationError(c, "low_stock_threshold", "low_stock_threshold is required (null clears it)")
	}
	item, err := h.inventoryService.SetLowStockThreshold(c.Request().Context(), id, req.LowStockThreshold, req.ExpectedVersion)
	if err != nil {
		return common.SendError(c, h.log, "item.low_stock_threshold", err)
	}
	return c.JSON(http.StatusOK, item)
}

// MoveItem handles POST /items/:id/move
func (h *InventoryHandlers) MoveItem(c echo.Context) error {
	var req models.MoveItemRequest
	id, err := h.bindItem(c, &req, &req.ItemRef)
	if err != nil {
		return common.SendError(c, h.log, "item.move", err)
	}
	if !req.LocationID.Set {
		return common.SendValidationError(c, "location_id", "location_id is required (null unassigns the item)")
	}
	locationID, err := models.ParseFieldID(req.LocationID, "location_id")
	if err != nil {
		return common.SendError(c, h.log, "item.move", err)
	}
	item, err := h.inventoryService.MoveItem(c.Request().Context(), id, locationID, req.ExpectedVersion)
	if err != nil {
		return common.SendError(c, h.log, "item.move", err)
	}
	return c.JSON(http.StatusOK, item)
}

// BulkItems handles POST /items/bulk. Per-operation failures are reported in the result with a 200.
func (h *InventoryHandlers) BulkItems(c echo.Context) error {
	var req models.BulkItemsRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		return common.SendError(c, h.log, "item.bulk", err)
	}
	result, err := h.inventoryService.BulkItems(c.Request().Context(), req.Operations)
	if err != nil {
		return common.SendError(c, h.log, "item.bulk", err)
	}
	return c.JSON(http.StatusOK, result)
}

// Stats handles GET /stats
func (h *InventoryHandlers) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.inventoryService.Counts(c.Request().Context()))
}
