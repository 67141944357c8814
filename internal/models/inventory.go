package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	Domain             = "haventory"
	IntegrationVersion = "0.1.0"
)

// Counts are the aggregate figures served by stats and health.
type Counts struct {
	ItemsTotal      int `json:"items_total"`
	LowStockCount   int `json:"low_stock_count"`
	CheckedOutCount int `json:"checked_out_count"`
	LocationsTotal  int `json:"locations_total"`
}

// HealthReport lists index consistency problems; healthy when Issues is empty.
type HealthReport struct {
	Healthy bool     `json:"healthy"`
	Issues  []string `json:"issues"`
	Counts  Counts   `json:"counts"`
}

// ListOptions drives a filtered, sorted and optionally paginated item query.
type ListOptions struct {
	Filter *ItemFilter `json:"filter,omitempty"`
	Sort   *Sort       `json:"sort,omitempty"`
	Limit  *int        `json:"limit,omitempty"`  // nil or <= 0 returns everything
	Cursor *string     `json:"cursor,omitempty"` // opaque, from a previous page
}

// ListResult is one page of items.
type ListResult struct {
	Items      []*Item `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

// Document is the persisted snapshot of the whole repository.
type Document struct {
	SchemaVersion int                     `json:"schema_version"`
	Generation    int64                   `json:"generation,omitempty"` // diagnostic only
	Items         map[uuid.UUID]*Item     `json:"items"`
	Locations     map[uuid.UUID]*Location `json:"locations"`
}

// Area is an entry of the external area registry.
type Area struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ItemPage is ListResult with items rendered for clients.
type ItemPage struct {
	Items      []*ItemView `json:"items"`
	NextCursor *string     `json:"next_cursor"`
}

// SnapshotObject describes one backup stored in object storage.
type SnapshotObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url,omitempty"`
}
