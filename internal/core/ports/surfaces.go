package ports

import (
	"partner/internal/core/domain/model/kernel"
)

// Marker is the partner's position marker on the map surface.
type Marker struct {
	Position kernel.GeoPoint `json:"position"`
	Heading  float64         `json:"heading"`
	Visible  bool            `json:"visible"`
	Live     bool            `json:"live"`
}

// MarkerSurface is the host the marker is drawn on. It may drop the marker at any
// time, e.g. when the map is re-created.
type MarkerSurface interface {
	IsAttached() bool
	Attach() error
	Update(m Marker) error
}

// Broadcast topics.
const (
	TopicPresenceChanged = "presence-changed"
	TopicWalletUpdated   = "wallet-updated"
	TopicProgressUpdated = "progress-updated"
	TopicStageChanged    = "stage-changed"
	TopicCountdown       = "countdown"
	TopicProximity       = "proximity"
	TopicRouteUpdated    = "route-updated"
	TopicLocation        = "location-updated"
)

// EventPublisher broadcasts fire-and-forget events to whoever is listening.
type EventPublisher interface {
	Publish(topic string, payload any)
}
