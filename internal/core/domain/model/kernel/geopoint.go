package kernel

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"partner/internal/pkg/errs"
	"partner/internal/pkg/guard"
)

const (
	// LatitudeMin is the southern bound of a valid latitude.
	LatitudeMin = -90.0
	// LatitudeMax is the northern bound of a valid latitude.
	LatitudeMax = 90.0
	// LongitudeMin is the western bound of a valid longitude.
	LongitudeMin = -180.0
	// LongitudeMax is the eastern bound of a valid longitude.
	LongitudeMax = 180.0

	// EarthRadiusMeters is the mean Earth radius used by Distance.
	EarthRadiusMeters = 6371000.0
)

// ErrGeoPointIsNotConstructed is returned when a zero GeoPoint is used.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
	"geo point must be created via NewGeoPoint or NewRandomGeoPointNear")

// DefaultGeoPoint is the fallback position used before any valid fix is known.
var DefaultGeoPoint = MustNewGeoPoint(22.7196, 75.8577)

// GeoPoint is an immutable WGS84 coordinate pair. Both components are finite and
// within range; the zero value is invalid.
//
// Example:
//
//	p, err := kernel.NewGeoPoint(22.7196, 75.8577)
//	if err != nil {
//	    // lat/lng out of range or not finite
//	}
//	fmt.Println(p) // GeoPoint(22.719600,75.857700)
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint validates and builds a GeoPoint.
//
// Parameters:
//   - lat: latitude in degrees, finite and within [-90, 90]
//   - lng: longitude in degrees, finite and within [-180, 180]
//
// Returns:
//   - GeoPoint: the validated point
//   - error: a joined validation error naming every bad component
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	p := GeoPoint{guard: guard.NewConstructorGuard()}

	if err := errors.Join(p.setLat(lat), p.setLng(lng)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// MustNewGeoPoint is NewGeoPoint for compile-time constants; it panics on invalid input.
func MustNewGeoPoint(lat, lng float64) GeoPoint {
	p, err := NewGeoPoint(lat, lng)
	if err != nil {
		panic(err)
	}
	return p
}

// NewRandomGeoPointNear returns a point uniformly spread inside a square of
// ±radiusMeters around center. It is used by the demo offer source.
func NewRandomGeoPointNear(center GeoPoint, radiusMeters float64) (GeoPoint, error) {
	if err := center.Validate(); err != nil {
		return GeoPoint{}, err
	}
	u, v := rand.Float64()*2-1, rand.Float64()*2-1 //nolint:gosec // it's ok
	dLat := u * radiusMeters / EarthRadiusMeters * 180 / math.Pi
	dLng := v * radiusMeters / (EarthRadiusMeters * math.Cos(toRadians(center.lat))) * 180 / math.Pi
	return NewGeoPoint(clamp(center.lat+dLat, LatitudeMin, LatitudeMax), wrapLongitude(center.lng+dLng))
}

// Validate reports whether the point was built by a constructor.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

// IsZero reports whether p is the unconstructed zero value.
func (p GeoPoint) IsZero() bool {
	return p.Validate() != nil
}

// Lat returns the latitude in degrees.
func (p GeoPoint) Lat() float64 {
	return p.lat
}

// Lng returns the longitude in degrees.
func (p GeoPoint) Lng() float64 {
	return p.lng
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%f,%f)", p.lat, p.lng)
}

// IsEqual compares two constructed points component-wise.
func (p GeoPoint) IsEqual(other GeoPoint) (bool, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return false, err
	}
	return p.lat == other.lat && p.lng == other.lng, nil
}

// DistanceTo returns the great-circle (haversine) distance in meters.
//
// Example:
//
//	a := kernel.MustNewGeoPoint(0, 0)
//	b := kernel.MustNewGeoPoint(0, 1)
//	d, _ := a.DistanceTo(b) // ≈ 111195 m
func (p GeoPoint) DistanceTo(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	dLat := toRadians(other.lat - p.lat)
	dLng := toRadians(other.lng - p.lng)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(p.lat))*math.Cos(toRadians(other.lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c, nil
}

// BearingTo returns the initial great-circle bearing from p to other in degrees,
// normalized to [0, 360). North is 0, east is 90.
//
//	θ = atan2(sin Δλ · cos φ2, cos φ1 · sin φ2 − sin φ1 · cos φ2 · cos Δλ)
func (p GeoPoint) BearingTo(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	phi1 := toRadians(p.lat)
	phi2 := toRadians(other.lat)
	dLambda := toRadians(other.lng - p.lng)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	return NormalizeHeading(math.Atan2(y, x) * 180 / math.Pi), nil
}

// NormalizeHeading folds any finite angle in degrees into [0, 360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

type geoPointJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p GeoPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoPointJSON{Lat: p.lat, Lng: p.lng})
}

func (p *GeoPoint) UnmarshalJSON(b []byte) error {
	var raw geoPointJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := NewGeoPoint(raw.Lat, raw.Lng)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p *GeoPoint) setLat(lat float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return errs.NewValueIsInvalidErrorWithCause("latitude", fmt.Errorf("%v is not a finite number", lat))
	}
	if lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}
	p.lat = lat
	return nil
}

func (p *GeoPoint) setLng(lng float64) error {
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return errs.NewValueIsInvalidErrorWithCause("longitude", fmt.Errorf("%v is not a finite number", lng))
	}
	if lng < LongitudeMin || lng > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", lng, LongitudeMin, LongitudeMax)
	}
	p.lng = lng
	return nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func wrapLongitude(lng float64) float64 {
	for lng > LongitudeMax {
		lng -= 360
	}
	for lng < LongitudeMin {
		lng += 360
	}
	return lng
}
