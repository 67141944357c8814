package repositories

import (
	"time"

	"haventory/internal/models"

	"github.com/google/uuid"
)

// ExportState returns a deep copy of the repository as a persistable document.
func (r *inventoryRepo) ExportState() *models.Document {
	doc := &models.Document{
		SchemaVersion: CurrentSchemaVersion,
		Generation:    r.generation,
		Items:         make(map[uuid.UUID]*models.Item, len(r.items)),
		Locations:     make(map[uuid.UUID]*models.Location, len(r.locations)),
	}
	for id, it := range r.items {
		doc.Items[id] = it.Clone()
	}
	for id, loc := range r.locations {
		doc.Locations[id] = loc.Clone()
	}
	return doc
}

// FromState rebuilds a repository from a document. Every location and item goes through the
// regular indexing path; stored paths are re-derived from the parent chain rather than trusted.
func FromState(doc *models.Document, opts ...Option) (InventoryRepository, error) {
	r := newInventoryRepo(opts...)
	if doc == nil {
		return r, nil
	}

	for key, loc := range doc.Locations {
		if loc == nil || loc.ID != key {
			return nil, models.NewValidationError("location %s: id does not match its key", key)
		}
		if _, err := models.NormalizeName(loc.Name); err != nil {
			return nil, models.NewValidationError("location %s: %s", key, err.Error())
		}
	}
	for _, loc := range doc.Locations {
		chain, err := models.LocationChain(loc.ID, doc.Locations)
		if err != nil {
			return nil, models.NewValidationError("location %s: %s", loc.ID, err.Error())
		}
		restored := loc.Clone()
		restored.AreaID = normalizeAreaID(restored.AreaID)
		restored.Path = models.BuildLocationPath(chain)
		r.addLocation(restored)
	}

	for key, it := range doc.Items {
		if it == nil || it.ID != key {
			return nil, models.NewValidationError("item %s: id does not match its key", key)
		}
		restored := it.Clone()
		restored.Tags = models.NormalizeTags(restored.Tags)
		restored.CreatedAt = restored.CreatedAt.UTC().Truncate(time.Second)
		restored.UpdatedAt = restored.UpdatedAt.UTC().Truncate(time.Second)
		if restored.Version < 1 {
			restored.Version = 1
		}
		restored.LocationPath = models.EmptyLocationPath()
		if restored.LocationID != nil {
			path, err := models.BuildLocationPathFromMap(*restored.LocationID, r.locations)
			if err != nil {
				return nil, models.NewValidationError("item %s: %s", key, err.Error())
			}
			restored.LocationPath = path
		}
		r.indexItem(restored)
	}
	r.generation = doc.Generation
	return r, nil
}
