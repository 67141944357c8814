package services

import (
	"context"
	"time"

	"haventory/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*models.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockSnapshotStore) Save(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetCounts(ctx context.Context) (*models.Counts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Counts), args.Error(1)
}

func (m *MockCacheService) SetCounts(ctx context.Context, counts models.Counts, ttl time.Duration) error {
	args := m.Called(ctx, counts, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateCounts(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) GetArea(ctx context.Context, areaID string) (*models.Area, error) {
	args := m.Called(ctx, areaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Area), args.Error(1)
}

func (m *MockCacheService) SetArea(ctx context.Context, area *models.Area, ttl time.Duration) error {
	args := m.Called(ctx, area, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetAreaIDByName(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) SetAreaIDByName(ctx context.Context, name, areaID string, ttl time.Duration) error {
	args := m.Called(ctx, name, areaID, ttl)
	return args.Error(0)
}

func (m *MockCacheService) PublishEvent(ctx context.Context, ev models.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateAllCache(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockAreaRepository struct {
	mock.Mock
}

func (m *MockAreaRepository) List(ctx context.Context) ([]models.Area, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Area), args.Error(1)
}

func (m *MockAreaRepository) GetByID(ctx context.Context, id string) (*models.Area, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Area), args.Error(1)
}

func (m *MockAreaRepository) FindByName(ctx context.Context, name string) (*models.Area, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Area), args.Error(1)
}
