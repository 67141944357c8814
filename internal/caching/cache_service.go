package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"haventory/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "haventory:"

type CacheService interface {
	// Counts caching
	GetCounts(ctx context.Context) (*models.Counts, error)
	SetCounts(ctx context.Context, counts models.Counts, ttl time.Duration) error
	InvalidateCounts(ctx context.Context) error

	// Area registry caching
	GetArea(ctx context.Context, areaID string) (*models.Area, error)
	SetArea(ctx context.Context, area *models.Area, ttl time.Duration) error
	GetAreaIDByName(ctx context.Context, name string) (string, error)
	SetAreaIDByName(ctx context.Context, name, areaID string, ttl time.Duration) error

	// Change events
	PublishEvent(ctx context.Context, ev models.Event) error

	InvalidateAllCache(ctx context.Context) error
	Ping(ctx context.Context) error
}

func CountsKey() string { return keyPrefix + "counts" }

func AreaKey(areaID string) string { return keyPrefix + "area:" + areaID }

func AreaNameKey(name string) string {
	return keyPrefix + "area_name:" + strings.ToLower(strings.TrimSpace(name))
}

// EventChannel is the pub/sub channel events of topic are published on.
func EventChannel(topic string) string { return keyPrefix + "events:" + topic }

type redisCacheService struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisCacheService connects to addr, which may carry a redis:// or rediss:// scheme.
// A failed initial ping is logged, not fatal; callers treat cache errors as misses.
func NewRedisCacheService(addr, password string, db int, log *slog.Logger) CacheService {
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn("redis ping failed on initialization", "addr", parsedAddr, "error", err)
	} else {
		log.Debug("redis connection established", "addr", parsedAddr)
	}

	return NewCacheServiceFromClient(client, log)
}

func NewCacheServiceFromClient(client *redis.Client, log *slog.Logger) CacheService {
	return &redisCacheService{client: client, log: log}
}

func (r *redisCacheService) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, models.NewStorageError("cache get "+key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, models.NewStorageError("cache decode "+key, err)
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return models.NewStorageError("cache set "+key, err)
	}
	return nil
}

func (r *redisCacheService) GetCounts(ctx context.Context) (*models.Counts, error) {
	var counts models.Counts
	ok, err := r.getJSON(ctx, CountsKey(), &counts)
	if !ok || err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *redisCacheService) SetCounts(ctx context.Context, counts models.Counts, ttl time.Duration) error {
	return r.setJSON(ctx, CountsKey(), counts, ttl)
}

func (r *redisCacheService) InvalidateCounts(ctx context.Context) error {
	if err := r.client.Del(ctx, CountsKey()).Err(); err != nil {
		return models.NewStorageError("cache invalidate counts", err)
	}
	return nil
}

func (r *redisCacheService) GetArea(ctx context.Context, areaID string) (*models.Area, error) {
	var area models.Area
	ok, err := r.getJSON(ctx, AreaKey(areaID), &area)
	if !ok || err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *redisCacheService) SetArea(ctx context.Context, area *models.Area, ttl time.Duration) error {
	return r.setJSON(ctx, AreaKey(area.ID), area, ttl)
}

func (r *redisCacheService) GetAreaIDByName(ctx context.Context, name string) (string, error) {
	val, err := r.client.Get(ctx, AreaNameKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // cache miss
		}
		return "", models.NewStorageError("cache get area name", err)
	}
	return val, nil
}

func (r *redisCacheService) SetAreaIDByName(ctx context.Context, name, areaID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, AreaNameKey(name), areaID, ttl).Err(); err != nil {
		return models.NewStorageError("cache set area name", err)
	}
	return nil
}

func (r *redisCacheService) PublishEvent(ctx context.Context, ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := r.client.Publish(ctx, EventChannel(ev.Topic), data).Err(); err != nil {
		return models.NewStorageError("publish event", err)
	}
	return nil
}

func (r *redisCacheService) InvalidateAllCache(ctx context.Context) error {
	var keys []string
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return models.NewStorageError("cache scan", err)
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return models.NewStorageError("cache invalidate", err)
		}
	}
	return nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return models.NewStorageError("cache ping", err)
	}
	return nil
}

// noopCacheService is used when Redis is disabled: every read misses and every write succeeds.
type noopCacheService struct{}

func NewNoopCacheService() CacheService { return noopCacheService{} }

func (noopCacheService) GetCounts(context.Context) (*models.Counts, error)            { return nil, nil }
func (noopCacheService) SetCounts(context.Context, models.Counts, time.Duration) error { return nil }
func (noopCacheService) InvalidateCounts(context.Context) error                        { return nil }
func (noopCacheService) GetArea(context.Context, string) (*models.Area, error)         { return nil, nil }
func (noopCacheService) SetArea(context.Context, *models.Area, time.Duration) error    { return nil }
func (noopCacheService) GetAreaIDByName(context.Context, string) (string, error)       { return "", nil }
func (noopCacheService) SetAreaIDByName(context.Context, string, string, time.Duration) error {
	return nil
}
func (noopCacheService) PublishEvent(context.Context, models.Event) error { return nil }
func (noopCacheService) InvalidateAllCache(context.Context) error         { return nil }
func (noopCacheService) Ping(context.Context) error                       { return nil }
