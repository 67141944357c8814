package repositories

import (
	"slices"
	"strings"
	"time"

	"haventory/internal/models"

	"github.com/google/uuid"
)

// InventoryRepository is the in-memory store of items and locations.
// It is not safe for concurrent use; callers serialize access.
type InventoryRepository interface {
	CreateItem(payload models.ItemCreate) (*models.Item, error)
	GetItem(id uuid.UUID) (*models.Item, error)
	UpdateItem(id uuid.UUID, patch models.ItemUpdate, expectedVersion *int) (*models.Item, error)
	DeleteItem(id uuid.UUID, expectedVersion *int) error
	AdjustQuantity(id uuid.UUID, delta int, expectedVersion *int) (*models.Item, error)
	SetQuantity(id uuid.UUID, quantity int, expectedVersion *int) (*models.Item, error)
	CheckOut(id uuid.UUID, dueDate *string, expectedVersion *int) (*models.Item, error)
	CheckIn(id uuid.UUID, expectedVersion *int) (*models.Item, error)
	AddTags(id uuid.UUID, tags []string, expectedVersion *int) (*models.Item, error)
	RemoveTags(id uuid.UUID, tags []string, expectedVersion *int) (*models.Item, error)
	UpdateCustomFields(id uuid.UUID, set map[string]any, unset []string, expectedVersion *int) (*models.Item, error)
	SetLowStockThreshold(id uuid.UUID, threshold models.Field[int], expectedVersion *int) (*models.Item, error)
	MoveItem(id uuid.UUID, locationID models.Field[uuid.UUID], expectedVersion *int) (*models.Item, error)
	ListItems(opts models.ListOptions) (*models.ListResult, error)

	CreateLocation(name string, parentID *uuid.UUID, areaID *string) (*models.Location, error)
	GetLocation(id uuid.UUID) (*models.Location, error)
	UpdateLocation(id uuid.UUID, update models.LocationUpdate) (*models.Location, error)
	DeleteLocation(id uuid.UUID) error
	ListLocations() []*models.Location
	LocationTree() []*models.LocationNode

	Counts() models.Counts
	CheckConsistency() []string
	EffectiveAreaID(item *models.Item) *string
	View(item *models.Item) *models.ItemView
	ExportState() *models.Document
}

type idSet map[uuid.UUID]struct{}

func (s idSet) sorted() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	return ids
}

func addTo[K comparable](buckets map[K]idSet, key K, id uuid.UUID) {
	set := buckets[key]
	if set == nil {
		set = idSet{}
		buckets[key] = set
	}
	set[id] = struct{}{}
}

func removeFrom[K comparable](buckets map[K]idSet, key K, id uuid.UUID) {
	set, ok := buckets[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(buckets, key)
	}
}

type subtreeRebuilder func(root uuid.UUID, locations map[uuid.UUID]*models.Location, children map[uuid.UUID]idSet) error

type inventoryRepo struct {
	items     map[uuid.UUID]*models.Item
	locations map[uuid.UUID]*models.Location

	itemsByTag      map[string]idSet
	itemsByCategory map[string]idSet // casefolded category
	checkedOut      idSet
	lowStock        idSet
	itemsByLocation map[uuid.UUID]idSet
	createdAt       map[int64]idSet // unix seconds
	updatedAt       map[int64]idSet
	nameKeys        map[uuid.UUID]string
	children        map[uuid.UUID]idSet // uuid.Nil holds the roots

	generation     int64
	now            func() time.Time
	rebuildSubtree subtreeRebuilder
}

// Option configures a repository.
type Option func(*inventoryRepo)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *inventoryRepo) { r.now = now }
}

// NewInventoryRepo returns an empty repository.
func NewInventoryRepo(opts ...Option) InventoryRepository {
	return newInventoryRepo(opts...)
}

func newInventoryRepo(opts ...Option) *inventoryRepo {
	r := &inventoryRepo{
		items:           map[uuid.UUID]*models.Item{},
		locations:       map[uuid.UUID]*models.Location{},
		itemsByTag:      map[string]idSet{},
		itemsByCategory: map[string]idSet{},
		checkedOut:      idSet{},
		lowStock:        idSet{},
		itemsByLocation: map[uuid.UUID]idSet{},
		createdAt:       map[int64]idSet{},
		updatedAt:       map[int64]idSet{},
		nameKeys:        map[uuid.UUID]string{},
		children:        map[uuid.UUID]idSet{},
		now:             time.Now,
	}
	r.rebuildSubtree = r.rebuildPathsForSubtree
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *inventoryRepo) clock() time.Time {
	return models.Now(r.now)
}

func categoryKey(category *string) (string, bool) {
	if category == nil {
		return "", false
	}
	key := strings.ToLower(strings.TrimSpace(*category))
	return key, key != ""
}

func (r *inventoryRepo) indexItem(it *models.Item) {
	r.items[it.ID] = it
	for _, tag := range it.Tags {
		addTo(r.itemsByTag, tag, it.ID)
	}
	if key, ok := categoryKey(it.Category); ok {
		addTo(r.itemsByCategory, key, it.ID)
	}
	if it.CheckedOut {
		r.checkedOut[it.ID] = struct{}{}
	}
	if it.IsLowStock() {
		r.lowStock[it.ID] = struct{}{}
	}
	if it.LocationID != nil {
		addTo(r.itemsByLocation, *it.LocationID, it.ID)
	}
	addTo(r.createdAt, it.CreatedAt.Unix(), it.ID)
	addTo(r.updatedAt, it.UpdatedAt.Unix(), it.ID)
	r.nameKeys[it.ID] = models.FoldTextForSort(it.Name)
}

func (r *inventoryRepo) unindexItem(it *models.Item) {
	delete(r.items, it.ID)
	for _, tag := range it.Tags {
		removeFrom(r.itemsByTag, tag, it.ID)
	}
	if key, ok := categoryKey(it.Category); ok {
		removeFrom(r.itemsByCategory, key, it.ID)
	}
	delete(r.checkedOut, it.ID)
	delete(r.lowStock, it.ID)
	if it.LocationID != nil {
		removeFrom(r.itemsByLocation, *it.LocationID, it.ID)
	}
	removeFrom(r.createdAt, it.CreatedAt.Unix(), it.ID)
	removeFrom(r.updatedAt, it.UpdatedAt.Unix(), it.ID)
	delete(r.nameKeys, it.ID)
}

func (r *inventoryRepo) replaceItem(old, next *models.Item) {
	r.unindexItem(old)
	r.indexItem(next)
}

func (r *inventoryRepo) CreateItem(payload models.ItemCreate) (*models.Item, error) {
	// The location map is only needed to resolve a referenced location.
	var locations map[uuid.UUID]*models.Location
	if payload.LocationID != nil {
		locations = r.locations
	}
	item, err := models.NewItem(payload, locations, r.clock())
	if err != nil {
		return nil, err
	}
	r.indexItem(item)
	r.generation++
	return item.Clone(), nil
}

func (r *inventoryRepo) lookupItem(id uuid.UUID) (*models.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "item", ID: id.String()}
	}
	return it, nil
}

func checkVersion(it *models.Item, expected *int) error {
	if expected != nil && *expected != it.Version {
		return &models.ConflictError{Expected: *expected, Actual: it.Version}
	}
	return nil
}

func (r *inventoryRepo) GetItem(id uuid.UUID) (*models.Item, error) {
	it, err := r.lookupItem(id)
	if err != nil {
		return nil, err
	}
	return it.Clone(), nil
}

func (r *inventoryRepo) UpdateItem(id uuid.UUID, patch models.ItemUpdate, expectedVersion *int) (*models.Item, error) {
	current, err := r.lookupItem(id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(current, expectedVersion); err != nil {
		return nil, err
	}
	next, err := models.ApplyUpdate(current, patch, r.locations, r.clock())
	if err != nil {
		return nil, err
	}
	r.replaceItem(current, next)
	r.generation++
	return next.Clone(), nil
}

func (r *inventoryRepo) DeleteItem(id uuid.UUID, expectedVersion *int) error {
	current, err := r.lookupItem(id)
	if err != nil {
		return err
	}
	if err := checkVersion(current, expectedVersion); err != nil {
		return err
	}
	r.unindexItem(current)
	r.generation++
	return nil
}

func (r *inventoryRepo) AdjustQuantity(id uuid.UUID, delta int, expectedVersion *int) (*models.Item, error) {
	current, err := r.lookupItem(id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(current, expectedVersion); err != nil {
		return nil, err
	}
	quantity := current.Quantity + delta
	if quantity < 0 {
		return nil, models.NewValidationError("quantity cannot become negative")
	}
	return r.UpdateItem(id, models.ItemUpdate{Quantity: &quantity}, expectedVersion)
}

func (r *inventoryRepo) SetQuantity(id uuid.UUID, quantity int, expectedVersion *int) (*models.Item, error) {
	return r.UpdateItem(id, models.ItemUpdate{Quantity: &quantity}, expectedVersion)
}

func (r *inventoryRepo) CheckOut(id uuid.UUID, dueDate *string, expectedVersion *int) (*models.Item, error) {
	checkedOut := true
	due := models.Null[string]()
	if dueDate != nil {
		due = models.Value(*dueDate)
	}
	return r.UpdateItem(id, models.ItemUpdate{CheckedOut: &checkedOut, DueDate: due}, expectedVersion)
}

func (r *inventoryRepo) CheckIn(id uuid.UUID, expectedVersion *int) (*models.Item, error) {
	checkedOut := false
	return r.UpdateItem(id, models.ItemUpdate{CheckedOut: &checkedOut, DueDate: models.Null[string]()}, expectedVersion)
}

func (r *inventoryRepo) AddTags(id uuid.UUID, tags []string, expectedVersion *int) (*models.Item, error) {
	current, err := r.lookupItem(id)
	if err != nil {
		return nil, err
	}
	merged := append(append([]string{}, current.Tags...), models.NormalizeTags(tags)...)
	return r.UpdateItem(id, models.ItemUpdate{Tags: models.Value(merged)}, expectedVersion)
}

func (r *inventoryRepo) RemoveTags(id uuid.UUID, tags []string, expectedVersion *int) (*models.Item, error) {
	current, err := r.lookupItem(id)
	if err != nil {
		return nil, err
	}
	drop := models.NormalizeTags(tags)
	kept := make([]string, 0, len(current.Tags))
	for _, tag := range current.Tags {
		if !slices.Contains(drop, tag) {
			kept = append(kept, tag)
		}
	}
	return r.UpdateItem(id, models.ItemUpdate{Tags: models.Value(kept)}, expectedVersion)
}

func (r *inventoryRepo) UpdateCustomFields(id uuid.UUID, set map[string]any, unset []string, expectedVersion *int) (*models.Item, error) {
	return r.UpdateItem(id, models.ItemUpdate{CustomFieldsSet: set, CustomFieldsUnset: unset}, expectedVersion)
}

func (r *inventoryRepo) SetLowStockThreshold(id uuid.UUID, threshold models.Field[int], expectedVersion *int) (*models.Item, error) {
	if !threshold.Set {
		threshold = models.Null[int]()
	}
	return r.UpdateItem(id, models.ItemUpdate{LowStockThreshold: threshold}, expectedVersion)
}

func (r *inventoryRepo) MoveItem(id uuid.UUID, locationID models.Field[uuid.UUID], expectedVersion *int) (*models.Item, error) {
	if !locationID.Set {
		locationID = models.Null[uuid.UUID]()
	}
	return r.UpdateItem(id, models.ItemUpdate{LocationID: locationID}, expectedVersion)
}

func (r *inventoryRepo) Counts() models.Counts {
	return models.Counts{
		ItemsTotal:      len(r.items),
		LowStockCount:   len(r.lowStock),
		CheckedOutCount: len(r.checkedOut),
		LocationsTotal:  len(r.locations),
	}
}

// EffectiveAreaID is the area of the nearest location on the item's path that has one.
func (r *inventoryRepo) EffectiveAreaID(item *models.Item) *string {
	ids := item.LocationPath.IDPath
	for i := len(ids) - 1; i >= 0; i-- {
		loc, ok := r.locations[ids[i]]
		if ok && loc.AreaID != nil {
			area := *loc.AreaID
			return &area
		}
	}
	return nil
}

func (r *inventoryRepo) View(item *models.Item) *models.ItemView {
	return &models.ItemView{Item: item, EffectiveAreaID: r.EffectiveAreaID(item)}
}
