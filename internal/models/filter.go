package models

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemFilter holds query criteria; all set fields must match.
type ItemFilter struct {
	Q              string     `json:"q,omitempty"`               // substring of name, description, tags or display path
	TagsAny        []string   `json:"tags_any,omitempty"`        // at least one tag present
	TagsAll        []string   `json:"tags_all,omitempty"`        // every tag present
	Category       string     `json:"category,omitempty"`        // case-insensitive equality
	CheckedOut     *bool      `json:"checked_out,omitempty"`     // exact match
	LowStockOnly   bool       `json:"low_stock_only,omitempty"`  // quantity <= threshold
	LocationID     *uuid.UUID `json:"location_id,omitempty"`     // direct location
	IncludeSubtree bool       `json:"include_subtree,omitempty"` // also descendants of LocationID
	UpdatedAfter   string     `json:"updated_after,omitempty"`   // strict, YYYY-MM-DDTHH:MM:SSZ
	CreatedAfter   string     `json:"created_after,omitempty"`   // strict, YYYY-MM-DDTHH:MM:SSZ
}

// SortField and SortOrder name a sort key and direction.
type (
	SortField string
	SortOrder string
)

const (
	SortByUpdatedAt SortField = "updated_at"
	SortByCreatedAt SortField = "created_at"
	SortByName      SortField = "name"
	SortByQuantity  SortField = "quantity"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort selects the primary ordering; ties always fall back to id ascending.
type Sort struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultSort is updated_at descending.
func DefaultSort() Sort {
	return Sort{Field: SortByUpdatedAt, Order: SortDesc}
}

// ValidateSort rejects unknown fields and orders.
func ValidateSort(s Sort) error {
	switch s.Field {
	case SortByUpdatedAt, SortByCreatedAt, SortByName, SortByQuantity:
	default:
		return NewValidationError("sort.field must be one of: updated_at, created_at, name, quantity")
	}
	if s.Order != SortAsc && s.Order != SortDesc {
		return NewValidationError("sort.order must be 'asc' or 'desc'")
	}
	return nil
}

type compiledFilter struct {
	q            string
	tagsAny      []string
	tagsAll      []string
	category     string
	checkedOut   *bool
	lowStockOnly bool
	locationID   *uuid.UUID
	subtree      bool
	updatedAfter *time.Time
	createdAfter *time.Time
}

func compileFilter(f ItemFilter) (*compiledFilter, error) {
	c := &compiledFilter{
		q:            strings.ToLower(strings.TrimSpace(f.Q)),
		tagsAny:      NormalizeTags(f.TagsAny),
		tagsAll:      NormalizeTags(f.TagsAll),
		category:     strings.ToLower(strings.TrimSpace(f.Category)),
		checkedOut:   f.CheckedOut,
		lowStockOnly: f.LowStockOnly,
		locationID:   f.LocationID,
		subtree:      f.IncludeSubtree,
	}
	if f.UpdatedAfter != "" {
		ts, err := ParseTimestamp(f.UpdatedAfter, "updated_after")
		if err != nil {
			return nil, err
		}
		c.updatedAfter = &ts
	}
	if f.CreatedAfter != "" {
		ts, err := ParseTimestamp(f.CreatedAfter, "created_after")
		if err != nil {
			return nil, err
		}
		c.createdAfter = &ts
	}
	return c, nil
}

func (c *compiledFilter) matches(it *Item) bool {
	if c.q != "" && !matchesQuery(it, c.q) {
		return false
	}
	if len(c.tagsAny) > 0 && !slices.ContainsFunc(c.tagsAny, func(t string) bool { return slices.Contains(it.Tags, t) }) {
		return false
	}
	for _, t := range c.tagsAll {
		if !slices.Contains(it.Tags, t) {
			return false
		}
	}
	if c.category != "" {
		if it.Category == nil || strings.ToLower(strings.TrimSpace(*it.Category)) != c.category {
			return false
		}
	}
	if c.checkedOut != nil && it.CheckedOut != *c.checkedOut {
		return false
	}
	if c.lowStockOnly && !it.IsLowStock() {
		return false
	}
	if c.locationID != nil {
		if c.subtree {
			if !it.LocationPath.Contains(*c.locationID) {
				return false
			}
		} else if it.LocationID == nil || *it.LocationID != *c.locationID {
			return false
		}
	}
	if c.updatedAfter != nil && !it.UpdatedAt.After(*c.updatedAfter) {
		return false
	}
	if c.createdAfter != nil && !it.CreatedAt.After(*c.createdAfter) {
		return false
	}
	return true
}

func matchesQuery(it *Item, needle string) bool {
	if strings.Contains(strings.ToLower(it.Name), needle) {
		return true
	}
	if it.Description != nil && strings.Contains(strings.ToLower(*it.Description), needle) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(tag, needle) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(it.LocationPath.DisplayPath), needle)
}

// Matches evaluates f against a single item.
func (f ItemFilter) Matches(it *Item) (bool, error) {
	c, err := compileFilter(f)
	if err != nil {
		return false, err
	}
	return c.matches(it), nil
}

// FilterItems returns the items matching f, preserving input order.
func FilterItems(items []*Item, f ItemFilter) ([]*Item, error) {
	c, err := compileFilter(f)
	if err != nil {
		return nil, err
	}
	out := make([]*Item, 0, len(items))
	for _, it := range items {
		if c.matches(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

// SortKey is the primary sort value of it under field, in a form CompareSortKeys understands.
func SortKey(it *Item, field SortField) string {
	switch field {
	case SortByCreatedAt:
		return FormatTimestamp(it.CreatedAt)
	case SortByName:
		return FoldTextForSort(it.Name)
	case SortByQuantity:
		return strconv.Itoa(it.Quantity)
	default:
		return FormatTimestamp(it.UpdatedAt)
	}
}

// CompareSortKeys orders two primary keys ascending. Timestamps share a fixed-width layout, so they
// compare as strings; quantities compare numerically.
func CompareSortKeys(field SortField, a, b string) int {
	if field == SortByQuantity {
		x, errA := strconv.Atoi(a)
		y, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			return cmp.Compare(x, y)
		}
	}
	return strings.Compare(a, b)
}

// CompareItems orders by the primary key in s.Order, then id ascending.
func CompareItems(s Sort, keyA string, idA uuid.UUID, keyB string, idB uuid.UUID) int {
	c := CompareSortKeys(s.Field, keyA, keyB)
	if s.Order == SortDesc {
		c = -c
	}
	if c != 0 {
		return c
	}
	return strings.Compare(idA.String(), idB.String())
}

// SortItems returns a sorted copy. A nil sort means DefaultSort.
func SortItems(items []*Item, s *Sort) ([]*Item, error) {
	order := DefaultSort()
	if s != nil {
		if err := ValidateSort(*s); err != nil {
			return nil, err
		}
		order = *s
	}
	type keyed struct {
		key  string
		item *Item
	}
	rows := make([]keyed, len(items))
	for i, it := range items {
		rows[i] = keyed{key: SortKey(it, order.Field), item: it}
	}
	slices.SortStableFunc(rows, func(a, b keyed) int {
		return CompareItems(order, a.key, a.item.ID, b.key, b.item.ID)
	})
	out := make([]*Item, len(rows))
	for i, r := range rows {
		out[i] = r.item
	}
	return out, nil
}
