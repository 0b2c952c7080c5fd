package ports

import (
	"context"
	"fmt"
	"time"
)

// PositionOptions mirrors the options a device location API accepts.
type PositionOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	// MaximumAge is how old a cached fix may be; zero forbids cached fixes.
	MaximumAge time.Duration
}

// Coords is a raw device reading. Nothing about it is validated yet; a nil
// coordinate is one the device did not report.
type Coords struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Heading   *float64 `json:"heading,omitempty"`
	Accuracy  float64  `json:"accuracy"`
}

func NewCoords(lat, lng, accuracy float64) Coords {
	return Coords{Latitude: &lat, Longitude: &lng, Accuracy: accuracy}
}

type Position struct {
	Coords    Coords    `json:"coords"`
	Timestamp time.Time `json:"timestamp"`
}

type PositionErrorCode int

const (
	PermissionDenied    PositionErrorCode = 1
	PositionUnavailable PositionErrorCode = 2
	Timeout             PositionErrorCode = 3
)

// PositionError is the error callback payload of a device location API.
type PositionError struct {
	Code    PositionErrorCode `json:"code"`
	Message string            `json:"message"`
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("geolocation error %d: %s", e.Code, e.Message)
}

// PositionUpdate carries either a fix or the error reported instead of one.
type PositionUpdate struct {
	Position Position
	Err      error
}

// Geolocation is the device location capability.
type Geolocation interface {
	// CurrentPosition returns a single fix, honouring opts.Timeout.
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)

	// WatchPosition streams fixes until ctx is done, then closes the channel.
	WatchPosition(ctx context.Context, opts PositionOptions) (<-chan PositionUpdate, error)
}
