package caching

import (
	"context"
	"testing"
	"time"

	"haventory/internal/models"
	"haventory/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "haventory:counts", CountsKey())
	assert.Equal(t, "haventory:area:kitchen", AreaKey("kitchen"))
	assert.Equal(t, "haventory:area_name:living room", AreaNameKey("  Living Room "))
	assert.Equal(t, "haventory:events:items", EventChannel(models.TopicItems))
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	cache := NewNoopCacheService()

	assert.NoError(t, cache.SetCounts(ctx, models.Counts{ItemsTotal: 3}, time.Minute))
	counts, err := cache.GetCounts(ctx)
	assert.NoError(t, err)
	assert.Nil(t, counts)

	area, err := cache.GetArea(ctx, "kitchen")
	assert.NoError(t, err)
	assert.Nil(t, area)
	assert.NoError(t, cache.PublishEvent(ctx, models.Event{Topic: models.TopicStats}))
}

func TestUnreachableRedisReportsStorageErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCacheServiceFromClient(client, logger.Discard())
	ctx := context.Background()

	_, err := cache.GetCounts(ctx)
	assert.ErrorIs(t, err, models.ErrStorage)
	assert.ErrorIs(t, cache.Ping(ctx), models.ErrStorage)
	assert.ErrorIs(t, cache.PublishEvent(ctx, models.Event{Topic: models.TopicItems}), models.ErrStorage)
}
