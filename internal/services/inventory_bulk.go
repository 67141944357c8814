package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"haventory/internal/models"

	"github.com/google/uuid"
)

// bulkHandler applies one decoded bulk payload and returns the item to report plus the event action.
type bulkHandler func(s *inventoryService, ctx context.Context, payload json.RawMessage) (*models.ItemView, string, error)

var bulkHandlers = map[string]bulkHandler{
	models.BulkItemUpdate:               (*inventoryService).bulkItemUpdate,
	models.BulkItemDelete:               (*inventoryService).bulkItemDelete,
	models.BulkItemMove:                 (*inventoryService).bulkItemMove,
	models.BulkItemAdjustQuantity:       (*inventoryService).bulkItemAdjustQuantity,
	models.BulkItemSetQuantity:          (*inventoryService).bulkItemSetQuantity,
	models.BulkItemCheckOut:             (*inventoryService).bulkItemCheckOut,
	models.BulkItemCheckIn:              (*inventoryService).bulkItemCheckIn,
	models.BulkItemAddTags:              (*inventoryService).bulkItemAddTags,
	models.BulkItemRemoveTags:           (*inventoryService).bulkItemRemoveTags,
	models.BulkItemUpdateCustomFields:   (*inventoryService).bulkItemUpdateCustomFields,
	models.BulkItemSetLowStockThreshold: (*inventoryService).bulkItemSetLowStockThreshold,
}

// bulkContextKeys are copied from a failed payload into the error context.
var bulkContextKeys = []string{
	"item_id", "expected_version", "location_id", "due_date", "quantity", "delta",
	"low_stock_threshold", "tags", "set", "unset",
}

// validateBulkOperations rejects the whole request when op ids are missing or repeated.
func validateBulkOperations(ops []models.BulkOperation) error {
	if len(ops) == 0 {
		return models.NewValidationError("operations must not be empty")
	}
	seen := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		id := strings.TrimSpace(op.OpID)
		if id == "" {
			return models.NewValidationError("operation missing op_id")
		}
		if _, dup := seen[id]; dup {
			return models.NewValidationError("duplicate op_id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// BulkItems applies ops in order. Failures are reported per op and do not stop the batch; the
// state is persisted once when at least one op succeeded.
func (s *inventoryService) BulkItems(ctx context.Context, ops []models.BulkOperation) (*models.BulkOperationResult, error) {
	if err := validateBulkOperations(ops); err != nil {
		s.metrics.ObserveCommand("items_bulk", err)
		return nil, err
	}

	result := &models.BulkOperationResult{
		OperationID: "bulk_items_" + uuid.NewString(),
		TotalItems:  len(ops),
		StartTime:   s.now().UTC(),
		Results:     make(map[string]models.BulkOperationOutcome, len(ops)),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		view, err := s.applyBulkOpLocked(ctx, op)
		if err != nil {
			result.FailedItems++
			result.Results[op.OpID] = models.BulkOperationOutcome{
				Error: &models.ErrorDetail{
					Code:    models.ErrorCode(err),
					Message: err.Error(),
					Context: bulkErrorContext(op),
				},
			}
			continue
		}
		result.ProcessedItems++
		result.Results[op.OpID] = models.BulkOperationOutcome{Success: true, Result: view}
	}

	completed := s.now().UTC()
	result.CompletionTime = &completed
	result.Progress = 100
	switch {
	case result.FailedItems == 0:
		result.Status = "completed"
	case result.ProcessedItems == 0:
		result.Status = "failed"
	default:
		result.Status = "partial"
	}

	if result.ProcessedItems > 0 {
		if err := s.committedLocked(ctx); err != nil {
			s.metrics.ObserveCommand("items_bulk", err)
			return nil, err
		}
	}
	s.metrics.ObserveCommand("items_bulk", nil)
	return result, nil
}

func (s *inventoryService) applyBulkOpLocked(ctx context.Context, op models.BulkOperation) (*models.ItemView, error) {
	handler, ok := bulkHandlers[op.Kind]
	if !ok {
		return nil, models.NewValidationError("unknown operation kind")
	}
	view, action, err := handler(s, ctx, op.Payload)
	if err != nil {
		return nil, err
	}
	if action != models.ActionDeleted {
		s.publishItem(ctx, action, view)
	}
	return view, nil
}

func bulkErrorContext(op models.BulkOperation) map[string]any {
	ctx := map[string]any{"op_id": op.OpID, "kind": op.Kind}
	var payload map[string]any
	if err := json.Unmarshal(op.Payload, &payload); err != nil {
		return ctx
	}
	for _, key := range bulkContextKeys {
		if v, ok := payload[key]; ok {
			ctx[key] = v
		}
	}
	return ctx
}

// decodePayload treats a missing or null payload as an empty object.
func decodePayload(payload json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return models.NewValidationError("invalid payload: %s", err.Error())
	}
	return nil
}

func (s *inventoryService) itemResult(item *models.Item, action string, err error) (*models.ItemView, string, error) {
	if err != nil {
		return nil, "", err
	}
	return s.repo.View(item), action, nil
}

func (s *inventoryService) bulkItemUpdate(_ context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.UpdateItemRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	patch, err := req.ToUpdate()
	if err != nil {
		return nil, "", err
	}
	action := models.ActionUpdated
	if patch.LocationID.Set {
		action = models.ActionMoved
	}
	item, err := s.repo.UpdateItem(id, patch, req.ExpectedVersion)
	return s.itemResult(item, action, err)
}

func (s *inventoryService) bulkItemDelete(ctx context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.ItemRef
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	item, err := s.repo.GetItem(id)
	if err != nil {
		return nil, "", err
	}
	before := s.repo.View(item)
	if err := s.deleteItemLocked(ctx, id, req.ExpectedVersion); err != nil {
		return nil, "", err
	}
	return before, models.ActionDeleted, nil
}

func (s *inventoryService) bulkItemMove(_ context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.MoveItemRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	locationID, err := models.ParseFieldID(req.LocationID, "location_id")
	if err != nil {
		return nil, "", err
	}
	item, err := s.repo.MoveItem(id, locationID, req.ExpectedVersion)
	return s.itemResult(item, models.ActionMoved, err)
}

func (s *inventoryService) bulkItemAdjustQuantity(_ context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.AdjustQuantityRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	if req.Delta == nil {
		return nil, "", models.NewValidationError("delta is required")
	}
	item, err := s.repo.AdjustQuantity(id, *req.Delta, req.ExpectedVersion)
	return s.itemResult(item, models.ActionQuantityChanged, err)
}

func (s *inventoryService) bulkItemSetQuantity(_ context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.SetQuantityRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	if req.Quantity == nil {
		return nil, "", models.NewValidationError("quantity is required")
	}
	item, err := s.repo.SetQuantity(id, *req.Quantity, req.ExpectedVersion)
	return s.itemResult(item, models.ActionQuantityChanged, err)
}

func (s *inventoryService) bulkItemCheckOut(_ context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.CheckOutRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	item, err := s.repo.CheckOut(id, req.DueDate, req.ExpectedVersion)
	return s.itemResult(item, models.ActionCheckedOut, err)
}

func (s *inventoryService) bulkItemCheckIn(_ context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.ItemRef
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	item, err := s.repo.CheckIn(id, req.ExpectedVersion)
	return s.itemResult(item, models.ActionCheckedIn, err)
}

func (s *inventoryService) bulkItemAddTags(_ context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.TagsRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	item, err := s.repo.AddTags(id, req.Tags, req.ExpectedVersion)
	return s.itemResult(item, models.ActionUpdated, err)
}

func (s *inventoryService) bulkItemRemoveTags(_ context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.TagsRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	item, err := s.repo.RemoveTags(id, req.Tags, req.ExpectedVersion)
	return s.itemResult(item, models.ActionUpdated, err)
}

func (s *inventoryService) bulkItemUpdateCustomFields(_ context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.CustomFieldsRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	item, err := s.repo.UpdateCustomFields(id, req.Set, req.Unset, req.ExpectedVersion)
	return s.itemResult(item, models.ActionUpdated, err)
}

func (s *inventoryService) bulkItemSetLowStockThreshold(_ context.Context, payload json.RawMessage) (*models.ItemView, string, error) {
	var req models.LowStockThresholdRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, "", err
	}
	id, err := req.ID()
	if err != nil {
		return nil, "", err
	}
	item, err := s.repo.SetLowStockThreshold(id, req.LowStockThreshold, req.ExpectedVersion)
	return s.itemResult(item, models.ActionUpdated, err)
}
