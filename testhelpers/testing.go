package testhelpers

import (
	"context"
	"sync"
	"testing"
	"time"

	"haventory/internal/models"

	"github.com/google/uuid"
)

// Clock is a manually driven clock for deterministic timestamps.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at start, or at a fixed instant when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func IntPtr(v int) *int { return &v }

func StrPtr(v string) *string { return &v }

func BoolPtr(v bool) *bool { return &v }

// LocationTree holds ids of a small A > B > C chain plus a sibling root D.
type LocationTree struct {
	A, B, C, D uuid.UUID
}

// LocationCreator is satisfied by the repository and the inventory service adapters used in tests.
type LocationCreator interface {
	CreateLocation(name string, parentID *uuid.UUID, areaID *string) (*models.Location, error)
}

// SeedLocations builds A > B > C and a separate root D.
func SeedLocations(t *testing.T, repo LocationCreator) LocationTree {
	t.Helper()

	create := func(name string, parent *uuid.UUID) uuid.UUID {
		loc, err := repo.CreateLocation(name, parent, nil)
		if err != nil {
			t.Fatalf("create location %s: %v", name, err)
		}
		return loc.ID
	}
	a := create("A", nil)
	b := create("B", &a)
	c := create("C", &b)
	d := create("D", nil)
	return LocationTree{A: a, B: b, C: c, D: d}
}

// MemoryStore is an in-process snapshot store. SaveErr, when set, fails every Save.
type MemoryStore struct {
	mu      sync.Mutex
	doc     *models.Document
	saves   int
	SaveErr error
}

func (s *MemoryStore) EnsureSchema(context.Context) error { return nil }

func (s *MemoryStore) Load(context.Context) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return &models.Document{
			SchemaVersion: 1,
			Items:         map[uuid.UUID]*models.Item{},
			Locations:     map[uuid.UUID]*models.Location{},
		}, nil
	}
	return s.doc, nil
}

func (s *MemoryStore) Save(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.doc = doc
	s.saves++
	return nil
}

// Saves reports how many documents were stored.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
