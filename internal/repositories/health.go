package repositories

import (
	"slices"
)

// CheckConsistency cross-checks the primary maps against every secondary index and returns
// issue codes; an empty result means the indexes are coherent.
func (r *inventoryRepo) CheckConsistency() []string {
	var issues []string
	report := func(code string) {
		if !slices.Contains(issues, code) {
			issues = append(issues, code)
		}
	}

	for id, it := range r.items {
		if it.ID != id {
			report("item_id_key_mismatch")
		}
		if it.LocationID != nil {
			if _, ok := r.locations[*it.LocationID]; !ok {
				report("item_references_missing_location")
			}
			if _, ok := r.itemsByLocation[*it.LocationID][id]; !ok {
				report("item_missing_from_items_by_location_index")
			}
		}
		if _, ok := r.createdAt[it.CreatedAt.Unix()][id]; !ok {
			report("item_missing_from_created_at_bucket")
		}
		if _, ok := r.updatedAt[it.UpdatedAt.Unix()][id]; !ok {
			report("item_missing_from_updated_at_bucket")
		}
		_, indexed := r.checkedOut[id]
		switch {
		case it.CheckedOut && !indexed:
			report("checked_out_item_missing_from_index")
		case !it.CheckedOut && indexed:
			report("non_checked_out_item_present_in_index")
		}
		_, indexed = r.lowStock[id]
		switch {
		case it.IsLowStock() && !indexed:
			report("low_stock_item_missing_from_index")
		case !it.IsLowStock() && indexed:
			report("non_low_stock_item_present_in_index")
		}
	}

	known := func(name string, set idSet) {
		for id := range set {
			if _, ok := r.items[id]; !ok {
				report(name + "_references_unknown_item_ids")
				return
			}
		}
	}
	for _, set := range r.itemsByTag {
		known("tags_index", set)
	}
	for _, set := range r.itemsByCategory {
		known("category_index", set)
	}
	known("checked_out_index", r.checkedOut)
	known("low_stock_index", r.lowStock)
	for locID, set := range r.itemsByLocation {
		if _, ok := r.locations[locID]; !ok {
			report("items_by_location_references_missing_location")
		}
		known("items_by_location_index", set)
		for id := range set {
			if it, ok := r.items[id]; ok && (it.LocationID == nil || *it.LocationID != locID) {
				report("items_by_location_bucket_mismatch")
			}
		}
	}
	for _, set := range r.createdAt {
		known("created_at_bucket", set)
	}
	for _, set := range r.updatedAt {
		known("updated_at_bucket", set)
	}

	for id, loc := range r.locations {
		if loc.ID != id {
			report("location_id_key_mismatch")
		}
		if _, ok := r.children[loc.ParentKey()][id]; !ok {
			report("location_missing_from_children_index")
		}
	}
	for parent, set := range r.children {
		for id := range set {
			loc, ok := r.locations[id]
			if !ok || loc.ParentKey() != parent {
				report("children_index_mismatch")
			}
		}
	}

	slices.Sort(issues)
	return issues
}
