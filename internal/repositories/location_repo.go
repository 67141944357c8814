package repositories

import (
	"maps"
	"slices"
	"strings"

	"haventory/internal/models"

	"github.com/google/uuid"
)

func normalizeAreaID(area *string) *string {
	if area == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*area)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (r *inventoryRepo) CreateLocation(name string, parentID *uuid.UUID, areaID *string) (*models.Location, error) {
	name, err := models.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	var chain []*models.Location
	if parentID != nil {
		if _, ok := r.locations[*parentID]; !ok {
			return nil, models.NewValidationError("parent_id must reference an existing location")
		}
		if chain, err = models.LocationChain(*parentID, r.locations); err != nil {
			return nil, err
		}
	}

	loc := &models.Location{
		ID:     uuid.New(),
		Name:   name,
		AreaID: normalizeAreaID(areaID),
	}
	if parentID != nil {
		parent := *parentID
		loc.ParentID = &parent
	}
	loc.Path = models.BuildLocationPath(append(chain, loc))

	r.addLocation(loc)
	r.generation++
	return loc.Clone(), nil
}

func (r *inventoryRepo) addLocation(loc *models.Location) {
	r.locations[loc.ID] = loc
	addTo(r.children, loc.ParentKey(), loc.ID)
}

func (r *inventoryRepo) removeLocation(loc *models.Location) {
	delete(r.locations, loc.ID)
	removeFrom(r.children, loc.ParentKey(), loc.ID)
	delete(r.children, loc.ID)
	delete(r.itemsByLocation, loc.ID)
}

func (r *inventoryRepo) GetLocation(id uuid.UUID) (*models.Location, error) {
	loc, ok := r.locations[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "location", ID: id.String()}
	}
	return loc.Clone(), nil
}

// descendants returns every location below root in breadth-first order, root excluded.
func descendants(root uuid.UUID, children map[uuid.UUID]idSet) []uuid.UUID {
	var out []uuid.UUID
	seen := idSet{root: {}}
	queue := []uuid.UUID{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current].sorted() {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

func (r *inventoryRepo) validateParentMove(id uuid.UUID, target *uuid.UUID) error {
	if target == nil {
		return nil
	}
	if _, ok := r.locations[*target]; !ok {
		return models.NewValidationError("new_parent_id must reference an existing location")
	}
	if *target == id {
		return models.NewValidationError("cannot move a location under itself")
	}
	if slices.Contains(descendants(id, r.children), *target) {
		return models.NewValidationError("cannot move a location under one of its descendants")
	}
	return nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// UpdateLocation renames and/or moves a location. All changes are staged on copies and committed
// together, so a failure at any step leaves the repository untouched.
func (r *inventoryRepo) UpdateLocation(id uuid.UUID, update models.LocationUpdate) (*models.Location, error) {
	current, ok := r.locations[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "location", ID: id.String()}
	}

	name := current.Name
	if update.Name != nil {
		normalized, err := models.NormalizeName(*update.Name)
		if err != nil {
			return nil, err
		}
		name = normalized
	}
	target, requested := update.Parent.Target()
	parentChanged := requested && !sameParent(target, current.ParentID)
	if parentChanged {
		if err := r.validateParentMove(id, target); err != nil {
			return nil, err
		}
	}
	nameChanged := name != current.Name

	staged := current.Clone()
	staged.Name = name
	if parentChanged {
		staged.ParentID = target
	}
	if update.AreaID.Set {
		staged.AreaID = normalizeAreaID(update.AreaID.Value)
	}

	stagedLocations := maps.Clone(r.locations)
	stagedLocations[id] = staged
	stagedChildren := maps.Clone(r.children)
	if parentChanged {
		oldKey, newKey := current.ParentKey(), staged.ParentKey()
		stagedChildren[oldKey] = maps.Clone(stagedChildren[oldKey])
		removeFrom(stagedChildren, oldKey, id)
		stagedChildren[newKey] = maps.Clone(stagedChildren[newKey])
		addTo(stagedChildren, newKey, id)
	}

	var stagedItems []*models.Item
	if nameChanged || parentChanged {
		if err := r.rebuildSubtree(id, stagedLocations, stagedChildren); err != nil {
			return nil, err
		}
		var err error
		if stagedItems, err = r.restampSubtreeItems(id, stagedLocations, stagedChildren); err != nil {
			return nil, err
		}
	}

	r.locations = stagedLocations
	r.children = stagedChildren
	for _, next := range stagedItems {
		r.replaceItem(r.items[next.ID], next)
	}
	r.generation++
	return r.locations[id].Clone(), nil
}

// rebuildPathsForSubtree re-derives the path of root and every descendant from the staged maps.
func (r *inventoryRepo) rebuildPathsForSubtree(root uuid.UUID, locations map[uuid.UUID]*models.Location, children map[uuid.UUID]idSet) error {
	for _, locID := range append([]uuid.UUID{root}, descendants(root, children)...) {
		path, err := models.BuildLocationPathFromMap(locID, locations)
		if err != nil {
			return err
		}
		rebuilt := locations[locID].Clone()
		rebuilt.Path = path
		locations[locID] = rebuilt
	}
	return nil
}

// restampSubtreeItems recomputes items stored anywhere in the subtree through a no-op location update,
// which refreshes location_path and, like any update, bumps version and updated_at.
func (r *inventoryRepo) restampSubtreeItems(root uuid.UUID, locations map[uuid.UUID]*models.Location, children map[uuid.UUID]idSet) ([]*models.Item, error) {
	now := r.clock()
	var out []*models.Item
	for _, locID := range append([]uuid.UUID{root}, descendants(root, children)...) {
		for _, itemID := range r.itemsByLocation[locID].sorted() {
			current := r.items[itemID]
			next, err := models.ApplyUpdate(current, models.ItemUpdate{LocationID: models.Value(*current.LocationID)}, locations, now)
			if err != nil {
				return nil, err
			}
			out = append(out, next)
		}
	}
	return out, nil
}

func (r *inventoryRepo) DeleteLocation(id uuid.UUID) error {
	loc, ok := r.locations[id]
	if !ok {
		return &models.NotFoundError{Resource: "location", ID: id.String()}
	}
	if len(r.children[id]) > 0 {
		return models.NewValidationError("cannot delete a location that has child locations")
	}
	if len(r.itemsByLocation[id]) > 0 {
		return models.NewValidationError("cannot delete a location that contains items")
	}
	r.removeLocation(loc)
	r.generation++
	return nil
}

func compareLocations(a, b *models.Location) int {
	if c := strings.Compare(a.Path.SortKey, b.Path.SortKey); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

// ListLocations returns every location ordered by path.
func (r *inventoryRepo) ListLocations() []*models.Location {
	out := make([]*models.Location, 0, len(r.locations))
	for _, loc := range r.locations {
		out = append(out, loc.Clone())
	}
	slices.SortFunc(out, compareLocations)
	return out
}

// LocationTree nests locations under their parents; siblings are ordered by path.
func (r *inventoryRepo) LocationTree() []*models.LocationNode {
	var build func(parent uuid.UUID) []*models.LocationNode
	build = func(parent uuid.UUID) []*models.LocationNode {
		kids := make([]*models.Location, 0, len(r.children[parent]))
		for id := range r.children[parent] {
			kids = append(kids, r.locations[id])
		}
		slices.SortFunc(kids, compareLocations)
		nodes := make([]*models.LocationNode, 0, len(kids))
		for _, loc := range kids {
			nodes = append(nodes, &models.LocationNode{Location: loc.Clone(), Children: build(loc.ID)})
		}
		return nodes
	}
	return build(uuid.Nil)
}
