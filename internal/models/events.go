package models

import (
	"github.com/google/uuid"
)

// Subscription topics.
const (
	TopicItems     = "items"
	TopicLocations = "locations"
	TopicStats     = "stats"
)

// Event actions.
const (
	ActionCreated         = "created"
	ActionUpdated         = "updated"
	ActionDeleted         = "deleted"
	ActionMoved           = "moved"
	ActionRenamed         = "renamed"
	ActionQuantityChanged = "quantity_changed"
	ActionCheckedOut      = "checked_out"
	ActionCheckedIn       = "checked_in"
	ActionCounts          = "counts"
)

// Event is a change notification fanned out to subscribers.
type Event struct {
	Domain   string    `json:"domain"`
	Topic    string    `json:"topic"`
	Action   string    `json:"action"`
	TS       string    `json:"ts"`
	Item     *ItemView `json:"item,omitempty"`
	Location *Location `json:"location,omitempty"`
	Counts   *Counts   `json:"counts,omitempty"`
}

// SubscriptionFilter narrows a topic to a location or its subtree.
type SubscriptionFilter struct {
	Topic          string     `json:"topic"`
	LocationID     *uuid.UUID `json:"location_id,omitempty"`
	IncludeSubtree bool       `json:"include_subtree"`
}

// ValidTopic reports a known subscription topic.
func ValidTopic(topic string) bool {
	switch topic {
	case TopicItems, TopicLocations, TopicStats:
		return true
	}
	return false
}

// Matches reports whether ev passes the filter.
func (f SubscriptionFilter) Matches(ev Event) bool {
	if ev.Topic != f.Topic {
		return false
	}
	if f.LocationID == nil {
		return true
	}
	target := *f.LocationID
	switch {
	case ev.Topic == TopicItems && ev.Item != nil:
		if f.IncludeSubtree {
			return ev.Item.LocationPath.Contains(target)
		}
		return ev.Item.LocationID != nil && *ev.Item.LocationID == target
	case ev.Topic == TopicLocations && ev.Location != nil:
		if f.IncludeSubtree {
			return ev.Location.ID == target || ev.Location.Path.Contains(target)
		}
		return ev.Location.ID == target
	}
	return true
}
