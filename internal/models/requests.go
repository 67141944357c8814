package models

import (
	"github.com/google/uuid"
)

// CreateItemRequest is the wire form of ItemCreate; ids arrive as strings.
type CreateItemRequest struct {
	Name              string         `json:"name" validate:"required"`
	Description       *string        `json:"description"`
	Quantity          *int           `json:"quantity" validate:"omitempty,gte=0"`
	CheckedOut        bool           `json:"checked_out"`
	DueDate           *string        `json:"due_date"`
	LocationID        *string        `json:"location_id"`
	Tags              []string       `json:"tags"`
	Category          *string        `json:"category"`
	LowStockThreshold *int           `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	CustomFields      map[string]any `json:"custom_fields"`
}

func (r CreateItemRequest) ToCreate() (ItemCreate, error) {
	locationID, err := ParseOptionalID(r.LocationID, "location_id")
	if err != nil {
		return ItemCreate{}, err
	}
	return ItemCreate{
		Name:              r.Name,
		Description:       r.Description,
		Quantity:          r.Quantity,
		CheckedOut:        r.CheckedOut,
		DueDate:           r.DueDate,
		LocationID:        locationID,
		Tags:              r.Tags,
		Category:          r.Category,
		LowStockThreshold: r.LowStockThreshold,
		CustomFields:      r.CustomFields,
	}, nil
}

// ItemRef addresses one item with an optional optimistic version.
type ItemRef struct {
	ItemID          string `json:"item_id" validate:"required"`
	ExpectedVersion *int   `json:"expected_version" validate:"omitempty,gte=1"`
}

// ID parses ItemID.
func (r ItemRef) ID() (uuid.UUID, error) {
	return ParseUUIDv4(r.ItemID, "item_id")
}

// UpdateItemRequest carries a partial update; absent keys are left untouched and null clears.
type UpdateItemRequest struct {
	ItemRef
	Name              *string         `json:"name"`
	Description       Field[string]   `json:"description"`
	Quantity          *int            `json:"quantity"`
	CheckedOut        *bool           `json:"checked_out"`
	DueDate           Field[string]   `json:"due_date"`
	LocationID        Field[string]   `json:"location_id"`
	Tags              Field[[]string] `json:"tags"`
	Category          Field[string]   `json:"category"`
	LowStockThreshold Field[int]      `json:"low_stock_threshold"`
	CustomFieldsSet   map[string]any  `json:"custom_fields_set"`
	CustomFieldsUnset []string        `json:"custom_fields_unset"`
}

func (r UpdateItemRequest) ToUpdate() (ItemUpdate, error) {
	locationID, err := ParseFieldID(r.LocationID, "location_id")
	if err != nil {
		return ItemUpdate{}, err
	}
	return ItemUpdate{
		Name:              r.Name,
		Description:       r.Description,
		Quantity:          r.Quantity,
		CheckedOut:        r.CheckedOut,
		DueDate:           r.DueDate,
		LocationID:        locationID,
		Tags:              r.Tags,
		Category:          r.Category,
		LowStockThreshold: r.LowStockThreshold,
		CustomFieldsSet:   r.CustomFieldsSet,
		CustomFieldsUnset: r.CustomFieldsUnset,
	}, nil
}

type AdjustQuantityRequest struct {
	ItemRef
	Delta *int `json:"delta" validate:"required"`
}

type SetQuantityRequest struct {
	ItemRef
	Quantity *int `json:"quantity" validate:"required"`
}

type CheckOutRequest struct {
	ItemRef
	DueDate *string `json:"due_date"`
}

type TagsRequest struct {
	ItemRef
	Tags []string `json:"tags"`
}

type CustomFieldsRequest struct {
	ItemRef
	Set   map[string]any `json:"set"`
	Unset []string       `json:"unset"`
}

type LowStockThresholdRequest struct {
	ItemRef
	LowStockThreshold Field[int] `json:"low_stock_threshold"`
}

type MoveItemRequest struct {
	ItemRef
	LocationID Field[string] `json:"location_id"`
}

type CreateLocationRequest struct {
	Name     string  `json:"name" validate:"required"`
	ParentID *string `json:"parent_id"`
	AreaID   *string `json:"area_id"`
}

// UpdateLocationRequest renames and/or moves a location. A missing new_parent_id keeps the parent;
// null moves the location to the root.
type UpdateLocationRequest struct {
	Name        *string       `json:"name"`
	NewParentID Field[string] `json:"new_parent_id"`
	AreaID      Field[string] `json:"area_id"`
}

func (r UpdateLocationRequest) ToUpdate() (LocationUpdate, error) {
	parent, err := ParseFieldID(r.NewParentID, "new_parent_id")
	if err != nil {
		return LocationUpdate{}, err
	}
	return LocationUpdate{Name: r.Name, Parent: ParentFromField(parent), AreaID: r.AreaID}, nil
}

// ParseOptionalID parses an optional id; nil and "" mean absent.
func ParseOptionalID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := ParseUUIDv4(*raw, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseFieldID parses a nullable id slot, keeping supplied/null distinctions.
func ParseFieldID(raw Field[string], field string) (Field[uuid.UUID], error) {
	if !raw.Set {
		return Field[uuid.UUID]{}, nil
	}
	id, err := ParseOptionalID(raw.Value, field)
	if err != nil {
		return Field[uuid.UUID]{}, err
	}
	if id == nil {
		return Null[uuid.UUID](), nil
	}
	return Value(*id), nil
}

// MoveLocationRequest re-parents a subtree; null moves it to the root.
type MoveLocationRequest struct {
	NewParentID Field[string] `json:"new_parent_id"`
}

func (r MoveLocationRequest) ToUpdate() (LocationUpdate, error) {
	if !r.NewParentID.Set {
		return LocationUpdate{}, NewValidationError("new_parent_id is required (null moves to the root)")
	}
	parent, err := ParseFieldID(r.NewParentID, "new_parent_id")
	if err != nil {
		return LocationUpdate{}, err
	}
	return LocationUpdate{Parent: ParentFromField(parent)}, nil
}
