package models

import (
	"encoding/json"
	"time"
)

// Bulk item operation kinds.
const (
	BulkItemUpdate               = "item_update"
	BulkItemDelete               = "item_delete"
	BulkItemMove                 = "item_move"
	BulkItemAdjustQuantity       = "item_adjust_quantity"
	BulkItemSetQuantity          = "item_set_quantity"
	BulkItemCheckOut             = "item_check_out"
	BulkItemCheckIn              = "item_check_in"
	BulkItemAddTags              = "item_add_tags"
	BulkItemRemoveTags           = "item_remove_tags"
	BulkItemUpdateCustomFields   = "item_update_custom_fields"
	BulkItemSetLowStockThreshold = "item_set_low_stock_threshold"
)

// BulkOperation is one entry of a bulk request; Payload is decoded according to Kind.
type BulkOperation struct {
	OpID    string          `json:"op_id" validate:"required"`
	Kind    string          `json:"kind" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

// BulkItemsRequest is the body of POST /items/bulk.
type BulkItemsRequest struct {
	Operations []BulkOperation `json:"operations" validate:"required,min=1,dive"`
}

// ErrorDetail is the error body shared by single and bulk responses.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// BulkOperationOutcome is the per-op result.
type BulkOperationOutcome struct {
	Success bool         `json:"success"`
	Result  *ItemView    `json:"result,omitempty"` // the item before deletion for item_delete
	Error   *ErrorDetail `json:"error,omitempty"`
}

// BulkOperationResult represents the result of a bulk operation
type BulkOperationResult struct {
	OperationID    string                          `json:"operation_id"`
	Status         string                          `json:"status"` // "completed", "partial", "failed"
	TotalItems     int                             `json:"total_items"`
	ProcessedItems int                             `json:"processed_items"`
	FailedItems    int                             `json:"failed_items"`
	Progress       float64                         `json:"progress"` // 0-100
	StartTime      time.Time                       `json:"start_time"`
	CompletionTime *time.Time                      `json:"completion_time,omitempty"`
	Results        map[string]BulkOperationOutcome `json:"results"`
}
