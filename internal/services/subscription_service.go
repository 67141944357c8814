package services

import (
	"context"
	"log/slog"
	"sync"

	"haventory/internal/caching"
	"haventory/internal/metrics"
	"haventory/internal/models"

	"github.com/google/uuid"
)

// DefaultSubscriptionBuffer is the per-subscriber channel capacity.
const DefaultSubscriptionBuffer = 64

// Subscription is a live registration returned by Subscribe.
type Subscription struct {
	ID     uuid.UUID
	Filter models.SubscriptionFilter
	Events <-chan models.Event
}

// SubscriptionService fans change events out to in-process subscribers and to Redis pub/sub.
type SubscriptionService interface {
	Subscribe(filter models.SubscriptionFilter) (*Subscription, error)
	Unsubscribe(id uuid.UUID)
	Publish(ctx context.Context, ev models.Event)
	Count() int
	Close()
}

type subscriber struct {
	filter models.SubscriptionFilter
	ch     chan models.Event
}

type subscriptionService struct {
	mu      sync.RWMutex
	subs    map[uuid.UUID]*subscriber
	closed  bool
	buffer  int
	cache   caching.CacheService
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewSubscriptionService(cache caching.CacheService, m *metrics.Metrics, log *slog.Logger, buffer int) SubscriptionService {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}
	if cache == nil {
		cache = caching.NewNoopCacheService()
	}
	return &subscriptionService{
		subs:    make(map[uuid.UUID]*subscriber),
		buffer:  buffer,
		cache:   cache,
		metrics: m,
		log:     log,
	}
}

func (s *subscriptionService) Subscribe(filter models.SubscriptionFilter) (*Subscription, error) {
	if !models.ValidTopic(filter.Topic) {
		return nil, models.NewValidationError("topic must be one of: items, locations, stats")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, models.NewValidationError("subscriptions are closed")
	}

	id := uuid.New()
	sub := &subscriber{filter: filter, ch: make(chan models.Event, s.buffer)}
	s.subs[id] = sub
	s.log.Debug("subscription added", "subscription_id", id, "topic", filter.Topic)
	return &Subscription{ID: id, Filter: filter, Events: sub.ch}, nil
}

// Unsubscribe closes the subscriber's channel. Unknown ids are ignored.
func (s *subscriptionService) Unsubscribe(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(sub.ch)
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (s *subscriptionService) Publish(ctx context.Context, ev models.Event) {
	s.mu.RLock()
	for id, sub := range s.subs {
		if !sub.filter.Matches(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			s.metrics.EventDropped()
			s.log.Warn("subscriber buffer full, event dropped", "subscription_id", id, "topic", ev.Topic, "action", ev.Action)
		}
	}
	s.mu.RUnlock()

	if err := s.cache.PublishEvent(ctx, ev); err != nil {
		s.log.Warn("failed to publish event to redis", "topic", ev.Topic, "action", ev.Action, "error", err)
	}
}

func (s *subscriptionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Close ends every subscription; later Subscribe calls fail.
func (s *subscriptionService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.subs {
		close(sub.ch)
		delete(s.subs, id)
	}
	s.closed = true
}
