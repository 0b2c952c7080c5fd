package kernel

import (
	"errors"

	"partner/internal/pkg/errs"
)

// ErrRouteIsTooShort is returned when a route has fewer than two points.
var ErrRouteIsTooShort = errs.NewValueIsInvalidErrorWithCause("route", errors.New("at least two points are required"))

// Route is a polyline from an origin to a destination. Fallback routes are the
// two-point straight line substituted when the routing service is unavailable.
type Route struct {
	Points   []GeoPoint `json:"points"`
	Fallback bool       `json:"fallback"`
}

// NewRoute validates every point of a polyline.
func NewRoute(points []GeoPoint) (Route, error) {
	if len(points) < 2 {
		return Route{}, ErrRouteIsTooShort
	}
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return Route{}, err
		}
	}
	out := make([]GeoPoint, len(points))
	copy(out, points)
	return Route{Points: out}, nil
}

// StraightLine is the deterministic fallback path between two points.
func StraightLine(from, to GeoPoint) Route {
	return Route{Points: []GeoPoint{from, to}, Fallback: true}
}

// Length sums the haversine length of every segment in meters.
func (r Route) Length() float64 {
	var total float64
	for i := 1; i < len(r.Points); i++ {
		d, err := r.Points[i-1].DistanceTo(r.Points[i])
		if err != nil {
			continue
		}
		total += d
	}
	return total
}

// IsEmpty reports whether the route carries no geometry.
func (r Route) IsEmpty() bool {
	return len(r.Points) == 0
}
