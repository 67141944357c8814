package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"haventory/internal/caching"
	"haventory/internal/models"
	"haventory/internal/repositories"
)

// AreaService resolves area ids and names against the registry, caching lookups in Redis.
type AreaService interface {
	List(ctx context.Context) ([]models.Area, error)
	ResolveName(ctx context.Context, areaID string) (*string, error)
	ResolveID(ctx context.Context, name string) (*string, error)
}

type areaService struct {
	areaRepo     repositories.AreaRepository
	cacheService caching.CacheService
	ttl          time.Duration
	log          *slog.Logger
}

func NewAreaService(areaRepo repositories.AreaRepository, cacheService caching.CacheService, ttl time.Duration, log *slog.Logger) AreaService {
	return &areaService{
		areaRepo:     areaRepo,
		cacheService: cacheService,
		ttl:          ttl,
		log:          log,
	}
}

func (s *areaService) List(ctx context.Context) ([]models.Area, error) {
	return s.areaRepo.List(ctx)
}

// ResolveName returns the name of areaID, or nil when the id is empty or unknown.
func (s *areaService) ResolveName(ctx context.Context, areaID string) (*string, error) {
	areaID = strings.TrimSpace(areaID)
	if areaID == "" {
		return nil, nil
	}

	cached, err := s.cacheService.GetArea(ctx, areaID)
	if err != nil {
		s.log.Warn("area cache read failed", "area_id", areaID, "error", err)
	} else if cached != nil {
		return &cached.Name, nil
	}

	area, err := s.areaRepo.GetByID(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if area == nil {
		return nil, nil
	}
	s.remember(ctx, area)
	return &area.Name, nil
}

// ResolveID returns the id of the area called name (case-insensitive), or nil when none matches.
func (s *areaService) ResolveID(ctx context.Context, name string) (*string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	cachedID, err := s.cacheService.GetAreaIDByName(ctx, name)
	if err != nil {
		s.log.Warn("area name cache read failed", "name", name, "error", err)
	} else if cachedID != "" {
		return &cachedID, nil
	}

	area, err := s.areaRepo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if area == nil {
		return nil, nil
	}
	s.remember(ctx, area)
	return &area.ID, nil
}

func (s *areaService) remember(ctx context.Context, area *models.Area) {
	if err := s.cacheService.SetArea(ctx, area, s.ttl); err != nil {
		s.log.Warn("area cache write failed", "area_id", area.ID, "error", err)
	}
	if err := s.cacheService.SetAreaIDByName(ctx, area.Name, area.ID, s.ttl); err != nil {
		s.log.Warn("area name cache write failed", "area_id", area.ID, "error", err)
	}
}
