package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"haventory/internal/caching"
	"haventory/internal/metrics"
	"haventory/internal/models"
	"haventory/internal/repositories"

	"github.com/google/uuid"
)

// InventoryService is the single entry point to the inventory repository. Calls are serialized;
// every successful mutation is persisted, announced to subscribers and reflected in metrics.
type InventoryService interface {
	Load(ctx context.Context) error

	CreateItem(ctx context.Context, payload models.ItemCreate) (*models.ItemView, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.ItemView, error)
	UpdateItem(ctx context.Context, id uuid.UUID, patch models.ItemUpdate, expectedVersion *int) (*models.ItemView, error)
	DeleteItem(ctx context.Context, id uuid.UUID, expectedVersion *int) error
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int, expectedVersion *int) (*models.ItemView, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int, expectedVersion *int) (*models.ItemView, error)
	CheckOut(ctx context.Context, id uuid.UUID, dueDate *string, expectedVersion *int) (*models.ItemView, error)
	CheckIn(ctx context.Context, id uuid.UUID, expectedVersion *int) (*models.ItemView, error)
	AddTags(ctx context.Context, id uuid.UUID, tags []string, expectedVersion *int) (*models.ItemView, error)
	RemoveTags(ctx context.Context, id uuid.UUID, tags []string, expectedVersion *int) (*models.ItemView, error)
	UpdateCustomFields(ctx context.Context, id uuid.UUID, set map[string]any, unset []string, expectedVersion *int) (*models.ItemView, error)
	SetLowStockThreshold(ctx context.Context, id uuid.UUID, threshold models.Field[int], expectedVersion *int) (*models.ItemView, error)
	MoveItem(ctx context.Context, id uuid.UUID, locationID models.Field[uuid.UUID], expectedVersion *int) (*models.ItemView, error)
	ListItems(ctx context.Context, opts models.ListOptions) (*models.ItemPage, error)
	LowStockItems(ctx context.Context) ([]*models.ItemView, error)

	// Bulk operations
	BulkItems(ctx context.Context, ops []models.BulkOperation) (*models.BulkOperationResult, error)

	CreateLocation(ctx context.Context, name string, parentID *uuid.UUID, areaID *string) (*models.Location, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, update models.LocationUpdate) (*models.Location, error)
	DeleteLocation(ctx context.Context, id uuid.UUID) error
	ListLocations(ctx context.Context) []*models.Location
	LocationTree(ctx context.Context) []*models.LocationNode

	Counts(ctx context.Context) models.Counts
	Health(ctx context.Context) models.HealthReport
	Snapshot(ctx context.Context) *models.Document
	Restore(ctx context.Context, doc *models.Document) error
}

type inventoryService struct {
	mu            sync.Mutex
	repo          repositories.InventoryRepository
	repoOpts      []repositories.Option
	store         repositories.SnapshotStore
	subscriptions SubscriptionService
	cacheService  caching.CacheService
	metrics       *metrics.Metrics
	log           *slog.Logger
	cacheTTL      time.Duration
	now           func() time.Time
}

// NewInventoryService starts with an empty repository; call Load to restore the stored snapshot.
// repoOpts are applied to every repository the service builds.
func NewInventoryService(
	store repositories.SnapshotStore,
	subscriptions SubscriptionService,
	cacheService caching.CacheService,
	m *metrics.Metrics,
	log *slog.Logger,
	cacheTTL time.Duration,
	repoOpts ...repositories.Option,
) InventoryService {
	if cacheService == nil {
		cacheService = caching.NewNoopCacheService()
	}
	return &inventoryService{
		repo:          repositories.NewInventoryRepo(repoOpts...),
		repoOpts:      repoOpts,
		store:         store,
		subscriptions: subscriptions,
		cacheService:  cacheService,
		metrics:       m,
		log:           log,
		cacheTTL:      cacheTTL,
		now:           time.Now,
	}
}

func (s *inventoryService) Load(ctx context.Context) error {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	repo, err := repositories.FromState(doc, s.repoOpts...)
	if err != nil {
		return fmt.Errorf("restore stored snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo = repo
	s.flushCacheLocked(ctx)
	counts := repo.Counts()
	s.metrics.SetCounts(counts)
	s.log.Info("inventory loaded", "items", counts.ItemsTotal, "locations", counts.LocationsTotal)
	return nil
}

// persistLocked saves the current state. The in-memory change is kept when saving fails.
func (s *inventoryService) persistLocked(ctx context.Context) error {
	start := time.Now()
	err := s.store.Save(ctx, s.repo.ExportState())
	s.metrics.ObservePersist(time.Since(start))
	if err != nil {
		s.log.Error("failed to persist inventory snapshot", "error", err)
	}
	return err
}

func (s *inventoryService) event(topic, action string) models.Event {
	return models.Event{
		Domain: models.Domain,
		Topic:  topic,
		Action: action,
		TS:     models.FormatTimestamp(s.now()),
	}
}

func (s *inventoryService) publish(ctx context.Context, ev models.Event) {
	if s.subscriptions != nil {
		s.subscriptions.Publish(ctx, ev)
	}
}

func (s *inventoryService) publishItem(ctx context.Context, action string, view *models.ItemView) {
	ev := s.event(models.TopicItems, action)
	ev.Item = view
	s.publish(ctx, ev)
}

func (s *inventoryService) publishLocation(ctx context.Context, action string, loc *models.Location) {
	ev := s.event(models.TopicLocations, action)
	ev.Location = loc
	s.publish(ctx, ev)
}

// committedLocked runs after any successful mutation: persist, then counts event, cache and gauges.
func (s *inventoryService) committedLocked(ctx context.Context) error {
	persistErr := s.persistLocked(ctx)

	counts := s.repo.Counts()
	ev := s.event(models.TopicStats, models.ActionCounts)
	ev.Counts = &counts
	s.publish(ctx, ev)

	if err := s.cacheService.InvalidateCounts(ctx); err != nil {
		s.log.Warn("failed to invalidate counts cache", "error", err)
	}
	s.metrics.SetCounts(counts)
	return persistErr
}

// flushCacheLocked drops every cached entry derived from the state that was just replaced.
func (s *inventoryService) flushCacheLocked(ctx context.Context) {
	if err := s.cacheService.InvalidateAllCache(ctx); err != nil {
		s.log.Warn("failed to flush cache after state replacement", "error", err)
	}
}

func (s *inventoryService) mutateItem(ctx context.Context, op, action string, fn func(repositories.InventoryRepository) (*models.Item, error)) (*models.ItemView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := fn(s.repo)
	if err != nil {
		s.metrics.ObserveCommand(op, err)
		return nil, err
	}
	view := s.repo.View(item)
	s.publishItem(ctx, action, view)
	err = s.committedLocked(ctx)
	s.metrics.ObserveCommand(op, err)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *inventoryService) CreateItem(ctx context.Context, payload models.ItemCreate) (*models.ItemView, error) {
	return s.mutateItem(ctx, "item_create", models.ActionCreated, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.CreateItem(payload)
	})
}

func (s *inventoryService) GetItem(ctx context.Context, id uuid.UUID) (*models.ItemView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.repo.GetItem(id)
	if err != nil {
		return nil, err
	}
	return s.repo.View(item), nil
}

// UpdateItem reports a location change as moved.
func (s *inventoryService) UpdateItem(ctx context.Context, id uuid.UUID, patch models.ItemUpdate, expectedVersion *int) (*models.ItemView, error) {
	action := models.ActionUpdated
	if patch.LocationID.Set {
		action = models.ActionMoved
	}
	return s.mutateItem(ctx, "item_update", action, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.UpdateItem(id, patch, expectedVersion)
	})
}

func (s *inventoryService) DeleteItem(ctx context.Context, id uuid.UUID, expectedVersion *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.deleteItemLocked(ctx, id, expectedVersion)
	if err == nil {
		err = s.committedLocked(ctx)
	}
	s.metrics.ObserveCommand("item_delete", err)
	return err
}

func (s *inventoryService) deleteItemLocked(ctx context.Context, id uuid.UUID, expectedVersion *int) error {
	item, err := s.repo.GetItem(id)
	if err != nil {
		return err
	}
	view := s.repo.View(item)
	if err := s.repo.DeleteItem(id, expectedVersion); err != nil {
		return err
	}
	s.publishItem(ctx, models.ActionDeleted, view)
	return nil
}

func (s *inventoryService) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int, expectedVersion *int) (*models.ItemView, error) {
	return s.mutateItem(ctx, "item_adjust_quantity", models.ActionQuantityChanged, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.AdjustQuantity(id, delta, expectedVersion)
	})
}

func (s *inventoryService) SetQuantity(ctx context.Context, id uuid.UUID, quantity int, expectedVersion *int) (*models.ItemView, error) {
	return s.mutateItem(ctx, "item_set_quantity", models.ActionQuantityChanged, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.SetQuantity(id, quantity, expectedVersion)
	})
}

func (s *inventoryService) CheckOut(ctx context.Context, id uuid.UUID, dueDate *string, expectedVersion *int) (*models.ItemView, error) {
	return s.mutateItem(ctx, "item_check_out", models.ActionCheckedOut, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.CheckOut(id, dueDate, expectedVersion)
	})
}

func (s *inventoryService) CheckIn(ctx context.Context, id uuid.UUID, expectedVersion *int) (*models.ItemView, error) {
	return s.mutateItem(ctx, "item_check_in", models.ActionCheckedIn, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.CheckIn(id, expectedVersion)
	})
}

func (s *inventoryService) AddTags(ctx context.Context, id uuid.UUID, tags []string, expectedVersion *int) (*models.ItemView, error) {
	return s.mutateItem(ctx, "item_add_tags", models.ActionUpdated, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.AddTags(id, tags, expectedVersion)
	})
}

func (s *inventoryService) RemoveTags(ctx context.Context, id uuid.UUID, tags []string, expectedVersion *int) (*models.ItemView, error) {
	return s.mutateItem(ctx, "item_remove_tags", models.ActionUpdated, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.RemoveTags(id, tags, expectedVersion)
	})
}

func (s *inventoryService) UpdateCustomFields(ctx context.Context, id uuid.UUID, set map[string]any, unset []string, expectedVersion *int) (*models.ItemView, error) {
	return s.mutateItem(ctx, "item_update_custom_fields", models.ActionUpdated, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.UpdateCustomFields(id, set, unset, expectedVersion)
	})
}

func (s *inventoryService) SetLowStockThreshold(ctx context.Context, id uuid.UUID, threshold models.Field[int], expectedVersion *int) (*models.ItemView, error) {
	return s.mutateItem(ctx, "item_set_low_stock_threshold", models.ActionUpdated, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.SetLowStockThreshold(id, threshold, expectedVersion)
	})
}

func (s *inventoryService) MoveItem(ctx context.Context, id uuid.UUID, locationID models.Field[uuid.UUID], expectedVersion *int) (*models.ItemView, error) {
	return s.mutateItem(ctx, "item_move", models.ActionMoved, func(r repositories.InventoryRepository) (*models.Item, error) {
		return r.MoveItem(id, locationID, expectedVersion)
	})
}

func (s *inventoryService) ListItems(ctx context.Context, opts models.ListOptions) (*models.ItemPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.repo.ListItems(opts)
	if err != nil {
		return nil, err
	}
	page := &models.ItemPage{Items: make([]*models.ItemView, 0, len(result.Items)), NextCursor: result.NextCursor}
	for _, item := range result.Items {
		page.Items = append(page.Items, s.repo.View(item))
	}
	return page, nil
}

// LowStockItems lists every low-stock item, lowest quantity first.
func (s *inventoryService) LowStockItems(ctx context.Context) ([]*models.ItemView, error) {
	page, err := s.ListItems(ctx, models.ListOptions{
		Filter: &models.ItemFilter{LowStockOnly: true},
		Sort:   &models.Sort{Field: models.SortByQuantity, Order: models.SortAsc},
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *inventoryService) CreateLocation(ctx context.Context, name string, parentID *uuid.UUID, areaID *string) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.repo.CreateLocation(name, parentID, areaID)
	if err != nil {
		s.metrics.ObserveCommand("location_create", err)
		return nil, err
	}
	s.publishLocation(ctx, models.ActionCreated, loc)
	err = s.committedLocked(ctx)
	s.metrics.ObserveCommand("location_create", err)
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *inventoryService) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.GetLocation(id)
}

// UpdateLocation emits moved for a parent change and renamed for a name change; both when both apply.
func (s *inventoryService) UpdateLocation(ctx context.Context, id uuid.UUID, update models.LocationUpdate) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.repo.UpdateLocation(id, update)
	if err != nil {
		s.metrics.ObserveCommand("location_update", err)
		return nil, err
	}

	published := false
	if update.Parent.Changes() {
		s.publishLocation(ctx, models.ActionMoved, loc)
		published = true
	}
	if update.Name != nil {
		s.publishLocation(ctx, models.ActionRenamed, loc)
		published = true
	}
	if !published {
		s.publishLocation(ctx, models.ActionUpdated, loc)
	}

	err = s.committedLocked(ctx)
	s.metrics.ObserveCommand("location_update", err)
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *inventoryService) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.repo.GetLocation(id)
	if err == nil {
		err = s.repo.DeleteLocation(id)
	}
	if err != nil {
		s.metrics.ObserveCommand("location_delete", err)
		return err
	}
	s.publishLocation(ctx, models.ActionDeleted, loc)
	err = s.committedLocked(ctx)
	s.metrics.ObserveCommand("location_delete", err)
	return err
}

func (s *inventoryService) ListLocations(ctx context.Context) []*models.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.ListLocations()
}

func (s *inventoryService) LocationTree(ctx context.Context) []*models.LocationNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.LocationTree()
}

// Counts is served from the cache when present and cached on a miss.
func (s *inventoryService) Counts(ctx context.Context) models.Counts {
	cached, err := s.cacheService.GetCounts(ctx)
	if err != nil {
		s.log.Warn("counts cache read failed", "error", err)
	} else if cached != nil {
		return *cached
	}

	// the cache write stays under the lock so a concurrent mutation's invalidation lands after it
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := s.repo.Counts()
	if err := s.cacheService.SetCounts(ctx, counts, s.cacheTTL); err != nil {
		s.log.Warn("counts cache write failed", "error", err)
	}
	return counts
}

func (s *inventoryService) Health(ctx context.Context) models.HealthReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	issues := s.repo.CheckConsistency()
	if issues == nil {
		issues = []string{}
	}
	return models.HealthReport{Healthy: len(issues) == 0, Issues: issues, Counts: s.repo.Counts()}
}

func (s *inventoryService) Snapshot(ctx context.Context) *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.ExportState()
}

// Restore replaces the whole repository with doc and persists it. An invalid document leaves the
// current state untouched.
func (s *inventoryService) Restore(ctx context.Context, doc *models.Document) error {
	repo, err := repositories.FromState(doc, s.repoOpts...)
	if err != nil {
		s.metrics.ObserveCommand("restore", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo = repo
	err = s.committedLocked(ctx)
	s.flushCacheLocked(ctx)
	s.metrics.ObserveCommand("restore", err)
	if err == nil {
		s.log.Info("inventory restored", "items", repo.Counts().ItemsTotal)
	}
	return err
}
