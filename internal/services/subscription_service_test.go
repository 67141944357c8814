package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"haventory/internal/caching"
	"haventory/internal/metrics"
	"haventory/internal/models"
	"haventory/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func itemEventAt(path ...uuid.UUID) models.Event {
	item := &models.Item{ID: uuid.New(), LocationPath: models.LocationPath{IDPath: path}}
	if len(path) > 0 {
		leaf := path[len(path)-1]
		item.LocationID = &leaf
	}
	return models.Event{Topic: models.TopicItems, Action: models.ActionUpdated, Item: &models.ItemView{Item: item}}
}

func TestSubscribeRejectsUnknownTopic(t *testing.T) {
	subs := NewSubscriptionService(caching.NewNoopCacheService(), nil, logger.Discard(), 4)

	_, err := subs.Subscribe(models.SubscriptionFilter{Topic: "weather"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestPublishFiltersByLocation(t *testing.T) {
	ctx := context.Background()
	subs := NewSubscriptionService(caching.NewNoopCacheService(), nil, logger.Discard(), 4)
	parent, child := uuid.New(), uuid.New()

	subtree, err := subs.Subscribe(models.SubscriptionFilter{Topic: models.TopicItems, LocationID: &parent, IncludeSubtree: true})
	require.NoError(t, err)
	direct, err := subs.Subscribe(models.SubscriptionFilter{Topic: models.TopicItems, LocationID: &parent})
	require.NoError(t, err)
	stats, err := subs.Subscribe(models.SubscriptionFilter{Topic: models.TopicStats})
	require.NoError(t, err)

	subs.Publish(ctx, itemEventAt(parent, child))

	assert.Len(t, subtree.Events, 1)
	assert.Len(t, direct.Events, 0)
	assert.Len(t, stats.Events, 0)

	subs.Publish(ctx, itemEventAt(parent))
	assert.Len(t, subtree.Events, 2)
	assert.Len(t, direct.Events, 1)
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	subs := NewSubscriptionService(caching.NewNoopCacheService(), m, logger.Discard(), 2)
	sub, err := subs.Subscribe(models.SubscriptionFilter{Topic: models.TopicStats})
	require.NoError(t, err)

	for range 5 {
		subs.Publish(ctx, models.Event{Topic: models.TopicStats, Action: models.ActionCounts})
	}

	assert.Len(t, sub.Events, 2)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "haventory_subscription_events_dropped_total 3")
}

func TestUnsubscribeAndClose(t *testing.T) {
	subs := NewSubscriptionService(caching.NewNoopCacheService(), nil, logger.Discard(), 1)
	first, err := subs.Subscribe(models.SubscriptionFilter{Topic: models.TopicItems})
	require.NoError(t, err)
	second, err := subs.Subscribe(models.SubscriptionFilter{Topic: models.TopicLocations})
	require.NoError(t, err)
	assert.Equal(t, 2, subs.Count())

	subs.Unsubscribe(first.ID)
	subs.Unsubscribe(first.ID)
	_, open := <-first.Events
	assert.False(t, open)
	assert.Equal(t, 1, subs.Count())

	subs.Close()
	_, open = <-second.Events
	assert.False(t, open)
	_, err = subs.Subscribe(models.SubscriptionFilter{Topic: models.TopicItems})
	assert.Error(t, err)
}

func TestPublishForwardsToRedis(t *testing.T) {
	ctx := context.Background()
	cache := new(MockCacheService)
	subs := NewSubscriptionService(cache, nil, logger.Discard(), 1)
	ev := models.Event{Topic: models.TopicStats, Action: models.ActionCounts}

	cache.On("PublishEvent", ctx, ev).Return(nil).Once()
	cache.On("PublishEvent", ctx, ev).Return(errors.New("redis down")).Once()

	subs.Publish(ctx, ev)
	subs.Publish(ctx, ev)
	cache.AssertExpectations(t)
}

func TestPublishWithoutSubscribersStillForwards(t *testing.T) {
	ctx := context.Background()
	cache := new(MockCacheService)
	subs := NewSubscriptionService(cache, nil, logger.Discard(), 1)

	cache.On("PublishEvent", ctx, mock.AnythingOfType("models.Event")).Return(nil).Once()
	subs.Publish(ctx, itemEventAt())
	cache.AssertExpectations(t)
}
