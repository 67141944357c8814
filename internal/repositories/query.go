package repositories

import (
	"encoding/base64"
	"encoding/json"

	"haventory/internal/models"

	"github.com/google/uuid"
)

type pageCursor struct {
	Sort        models.Sort `json:"sort"`
	LastSortKey string      `json:"last_sort_key"`
	LastID      string      `json:"last_id"`
}

func encodeCursor(c pageCursor) string {
	raw, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(raw)
}

// decodeCursor returns nil for anything that is not a cursor this repository produced.
func decodeCursor(raw string) *pageCursor {
	data, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var c pageCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	if _, err := uuid.Parse(c.LastID); err != nil {
		return nil
	}
	return &c
}

// candidates narrows the scan with the cheapest applicable index before the full predicate runs.
func (r *inventoryRepo) candidates(f *models.ItemFilter) []*models.Item {
	var bucket idSet
	narrowed := false
	pick := func(set idSet) {
		if !narrowed || len(set) < len(bucket) {
			bucket = set
		}
		narrowed = true
	}
	if f != nil {
		if f.LocationID != nil && !f.IncludeSubtree {
			pick(r.itemsByLocation[*f.LocationID])
		}
		if f.CheckedOut != nil && *f.CheckedOut {
			pick(r.checkedOut)
		}
		if f.LowStockOnly {
			pick(r.lowStock)
		}
		if key, ok := categoryKey(&f.Category); ok {
			pick(r.itemsByCategory[key])
		}
		for _, tag := range models.NormalizeTags(f.TagsAll) {
			pick(r.itemsByTag[tag])
		}
	}
	if !narrowed {
		out := make([]*models.Item, 0, len(r.items))
		for _, it := range r.items {
			out = append(out, it)
		}
		return out
	}
	out := make([]*models.Item, 0, len(bucket))
	for id := range bucket {
		out = append(out, r.items[id])
	}
	return out
}

// ListItems filters, sorts and paginates items. A cursor minted for a different sort is ignored.
func (r *inventoryRepo) ListItems(opts models.ListOptions) (*models.ListResult, error) {
	order := models.DefaultSort()
	if opts.Sort != nil {
		if err := models.ValidateSort(*opts.Sort); err != nil {
			return nil, err
		}
		order = *opts.Sort
	}

	items := r.candidates(opts.Filter)
	if opts.Filter != nil {
		var err error
		if items, err = models.FilterItems(items, *opts.Filter); err != nil {
			return nil, err
		}
	}
	sorted, err := models.SortItems(items, &order)
	if err != nil {
		return nil, err
	}

	page, next := r.paginate(sorted, order, opts.Limit, opts.Cursor)
	out := make([]*models.Item, len(page))
	for i, it := range page {
		out[i] = it.Clone()
	}
	return &models.ListResult{Items: out, NextCursor: next}, nil
}

func (r *inventoryRepo) sortKey(it *models.Item, field models.SortField) string {
	if field == models.SortByName {
		if key, ok := r.nameKeys[it.ID]; ok {
			return key
		}
	}
	return models.SortKey(it, field)
}

func (r *inventoryRepo) paginate(sorted []*models.Item, order models.Sort, limit *int, cursor *string) ([]*models.Item, *string) {
	if limit == nil || *limit <= 0 {
		return sorted, nil
	}

	start := 0
	if cursor != nil && *cursor != "" {
		if c := decodeCursor(*cursor); c != nil && c.Sort == order {
			lastID := uuid.MustParse(c.LastID)
			start = len(sorted)
			for i, it := range sorted {
				if models.CompareItems(order, r.sortKey(it, order.Field), it.ID, c.LastSortKey, lastID) > 0 {
					start = i
					break
				}
			}
		}
	}

	end := min(start+*limit, len(sorted))
	page := sorted[start:end]
	if len(page) == 0 || end >= len(sorted) {
		return page, nil
	}
	last := page[len(page)-1]
	next := encodeCursor(pageCursor{Sort: order, LastSortKey: r.sortKey(last, order.Field), LastID: last.ID.String()})
	return page, &next
}
