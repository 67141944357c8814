package models

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Item is an inventory record.
type Item struct {
	ID                uuid.UUID      `json:"id"`
	Name              string         `json:"name"`
	Description       *string        `json:"description"`
	Quantity          int            `json:"quantity"`
	CheckedOut        bool           `json:"checked_out"`
	DueDate           *string        `json:"due_date"` // YYYY-MM-DD, only while checked out
	LocationID        *uuid.UUID     `json:"location_id"`
	Tags              []string       `json:"tags"`
	Category          *string        `json:"category"`
	LowStockThreshold *int           `json:"low_stock_threshold"`
	CustomFields      map[string]any `json:"custom_fields"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Version           int            `json:"version"`
	LocationPath      LocationPath   `json:"location_path"`
}

// IsLowStock reports quantity at or under a configured threshold.
func (i *Item) IsLowStock() bool {
	return i.LowStockThreshold != nil && i.Quantity <= *i.LowStockThreshold
}

func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	out := *i
	out.Description = clonePtr(i.Description)
	out.DueDate = clonePtr(i.DueDate)
	out.LocationID = clonePtr(i.LocationID)
	out.Category = clonePtr(i.Category)
	out.LowStockThreshold = clonePtr(i.LowStockThreshold)
	out.Tags = append([]string{}, i.Tags...)
	out.CustomFields = maps.Clone(i.CustomFields)
	if out.CustomFields == nil {
		out.CustomFields = map[string]any{}
	}
	out.LocationPath = i.LocationPath.Clone()
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ItemCreate is the payload for a new item.
type ItemCreate struct {
	Name              string         `json:"name"`
	Description       *string        `json:"description,omitempty"`
	Quantity          *int           `json:"quantity,omitempty"` // defaults to 1
	CheckedOut        bool           `json:"checked_out,omitempty"`
	DueDate           *string        `json:"due_date,omitempty"`
	LocationID        *uuid.UUID     `json:"location_id,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	Category          *string        `json:"category,omitempty"`
	LowStockThreshold *int           `json:"low_stock_threshold,omitempty"`
	CustomFields      map[string]any `json:"custom_fields,omitempty"`
}

// ItemUpdate is a partial update. Only supplied fields are applied; Field slots may clear a value.
type ItemUpdate struct {
	Name              *string
	Description       Field[string]
	Quantity          *int
	CheckedOut        *bool
	DueDate           Field[string]
	LocationID        Field[uuid.UUID]
	Tags              Field[[]string] // replaces the list; null clears it
	Category          Field[string]
	LowStockThreshold Field[int]
	CustomFieldsSet   map[string]any
	CustomFieldsUnset []string
}

// NewItem validates payload and builds a version 1 item stamped at now.
func NewItem(payload ItemCreate, locations map[uuid.UUID]*Location, now time.Time) (*Item, error) {
	name, err := NormalizeName(payload.Name)
	if err != nil {
		return nil, err
	}
	quantity := 1
	if payload.Quantity != nil {
		quantity = *payload.Quantity
	}
	if quantity < 0 {
		return nil, NewValidationError("quantity must be an integer >= 0")
	}
	if err := validateThreshold(payload.LowStockThreshold); err != nil {
		return nil, err
	}
	if err := ValidateCustomFields(payload.CustomFields); err != nil {
		return nil, err
	}
	dueDate, err := validateDueDateRules(payload.CheckedOut, payload.DueDate)
	if err != nil {
		return nil, err
	}

	path := EmptyLocationPath()
	if payload.LocationID != nil {
		if _, ok := locations[*payload.LocationID]; !ok {
			return nil, NewValidationError("location_id must reference an existing location")
		}
		if path, err = BuildLocationPathFromMap(*payload.LocationID, locations); err != nil {
			return nil, err
		}
	}

	ts := now.UTC().Truncate(time.Second)
	customFields := maps.Clone(payload.CustomFields)
	if customFields == nil {
		customFields = map[string]any{}
	}
	return &Item{
		ID:                uuid.New(),
		Name:              name,
		Description:       clonePtr(payload.Description),
		Quantity:          quantity,
		CheckedOut:        payload.CheckedOut,
		DueDate:           dueDate,
		LocationID:        clonePtr(payload.LocationID),
		Tags:              NormalizeTags(payload.Tags),
		Category:          clonePtr(payload.Category),
		LowStockThreshold: clonePtr(payload.LowStockThreshold),
		CustomFields:      customFields,
		CreatedAt:         ts,
		UpdatedAt:         ts,
		Version:           1,
		LocationPath:      path,
	}, nil
}

// ApplyUpdate returns a new item with patch applied, the version bumped and updated_at moved strictly forward.
// item is never modified.
func ApplyUpdate(item *Item, patch ItemUpdate, locations map[uuid.UUID]*Location, now time.Time) (*Item, error) {
	next := item.Clone()

	if patch.Name != nil {
		name, err := NormalizeName(*patch.Name)
		if err != nil {
			return nil, err
		}
		next.Name = name
	}
	if patch.Description.Set {
		next.Description = clonePtr(patch.Description.Value)
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 0 {
			return nil, NewValidationError("quantity must be an integer >= 0")
		}
		next.Quantity = *patch.Quantity
	}

	checkedOut, dueDate := next.CheckedOut, next.DueDate
	if patch.CheckedOut != nil {
		checkedOut = *patch.CheckedOut
		// checking in drops the due date without requiring an explicit null
		if !checkedOut && !patch.DueDate.Set {
			dueDate = nil
		}
	}
	if patch.DueDate.Set {
		dueDate = clonePtr(patch.DueDate.Value)
	}
	dueDate, err := validateDueDateRules(checkedOut, dueDate)
	if err != nil {
		return nil, err
	}
	next.CheckedOut, next.DueDate = checkedOut, dueDate

	if patch.LocationID.Set {
		if id := patch.LocationID.Value; id != nil {
			if _, ok := locations[*id]; !ok {
				return nil, NewValidationError("location_id must reference an existing location")
			}
		}
		next.LocationID = clonePtr(patch.LocationID.Value)
	}
	switch {
	case next.LocationID == nil:
		next.LocationPath = EmptyLocationPath()
	case locations != nil:
		path, err := BuildLocationPathFromMap(*next.LocationID, locations)
		if err != nil {
			return nil, err
		}
		next.LocationPath = path
	}

	if patch.Tags.Set {
		var tags []string
		if patch.Tags.Value != nil {
			tags = *patch.Tags.Value
		}
		next.Tags = NormalizeTags(tags)
	}
	if patch.Category.Set {
		next.Category = clonePtr(patch.Category.Value)
	}
	if patch.LowStockThreshold.Set {
		if err := validateThreshold(patch.LowStockThreshold.Value); err != nil {
			return nil, err
		}
		next.LowStockThreshold = clonePtr(patch.LowStockThreshold.Value)
	}

	if len(patch.CustomFieldsSet) > 0 {
		if err := ValidateCustomFields(patch.CustomFieldsSet); err != nil {
			return nil, err
		}
		maps.Copy(next.CustomFields, patch.CustomFieldsSet)
	}
	for _, key := range patch.CustomFieldsUnset {
		delete(next.CustomFields, key)
	}

	next.UpdatedAt = NextStrictlyIncreasingTimestamp(item.UpdatedAt, now)
	next.Version = item.Version + 1
	return next, nil
}

// ValidateCustomFields accepts non-empty string keys mapped to strings, numbers or booleans.
func ValidateCustomFields(fields map[string]any) error {
	for key, value := range fields {
		if key == "" {
			return NewValidationError("custom_fields keys must be non-empty strings")
		}
		switch value.(type) {
		case string, bool, float64, float32, int, int32, int64, json.Number:
		default:
			return NewValidationError("custom_fields values must be scalar (string, number, or boolean)")
		}
	}
	return nil
}

func validateThreshold(threshold *int) error {
	if threshold != nil && *threshold < 0 {
		return NewValidationError("low_stock_threshold must be an integer >= 0 or null")
	}
	return nil
}

func validateDueDateRules(checkedOut bool, dueDate *string) (*string, error) {
	if dueDate == nil {
		return nil, nil
	}
	if !checkedOut {
		return nil, NewValidationError("due_date is only valid when checked_out is true")
	}
	value, err := ParseDate(*dueDate, "due_date")
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// ItemView is an item as returned to clients.
type ItemView struct {
	*Item
	EffectiveAreaID *string `json:"effective_area_id"`
}
