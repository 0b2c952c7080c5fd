package kernel_test

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr error
	}{
		{name: "default location", lat: 22.7196, lng: 75.8577},
		{name: "north pole", lat: 90, lng: 0},
		{name: "antimeridian west", lat: 0, lng: -180},
		{name: "latitude too large", lat: 999, lng: 0, wantErr: errs.ErrValueIsOutOfRange},
		{name: "latitude too small", lat: -90.0001, lng: 0, wantErr: errs.ErrValueIsOutOfRange},
		{name: "longitude too large", lat: 0, lng: 180.5, wantErr: errs.ErrValueIsOutOfRange},
		{name: "latitude NaN", lat: math.NaN(), lng: 0, wantErr: errs.ErrValueIsInvalid},
		{name: "longitude infinite", lat: 0, lng: math.Inf(1), wantErr: errs.ErrValueIsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := kernel.NewGeoPoint(tt.lat, tt.lng)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, p.IsZero())
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, p.Lat(), 1e-12)
			assert.InDelta(t, tt.lng, p.Lng(), 1e-12)
		})
	}
}

func TestGeoPoint_ZeroValue(t *testing.T) {
	var p kernel.GeoPoint

	require.ErrorIs(t, p.Validate(), kernel.ErrGeoPointIsNotConstructed)

	_, err := p.DistanceTo(kernel.DefaultGeoPoint)
	require.Error(t, err)
	_, err = kernel.DefaultGeoPoint.BearingTo(p)
	require.Error(t, err)
}

func TestGeoPoint_DistanceTo(t *testing.T) {
	a := kernel.MustNewGeoPoint(0, 0)
	b := kernel.MustNewGeoPoint(0, 1)

	d, err := a.DistanceTo(b)
	require.NoError(t, err)
	assert.InDelta(t, 111195, d, 1)

	back, err := b.DistanceTo(a)
	require.NoError(t, err)
	assert.InDelta(t, d, back, 1e-6)

	self, err := a.DistanceTo(a)
	require.NoError(t, err)
	assert.Zero(t, self)
}

func TestGeoPoint_BearingTo(t *testing.T) {
	origin := kernel.MustNewGeoPoint(0, 0)

	tests := []struct {
		name string
		to   kernel.GeoPoint
		want float64
	}{
		{"north", kernel.MustNewGeoPoint(1, 0), 0},
		{"east", kernel.MustNewGeoPoint(0, 1), 90},
		{"south", kernel.MustNewGeoPoint(-1, 0), 180},
		{"west", kernel.MustNewGeoPoint(0, -1), 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := origin.BearingTo(tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestGeoPoint_BearingMatchesSphericalFormula(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // deterministic test data
	rad := func(d float64) float64 { return d * math.Pi / 180 }

	for range 500 {
		lat1, lng1 := rng.Float64()*180-90, rng.Float64()*360-180
		lat2, lng2 := rng.Float64()*180-90, rng.Float64()*360-180
		a := kernel.MustNewGeoPoint(lat1, lng1)
		b := kernel.MustNewGeoPoint(lat2, lng2)

		got, err := a.BearingTo(b)
		require.NoError(t, err)

		y := math.Sin(rad(lng2-lng1)) * math.Cos(rad(lat2))
		x := math.Cos(rad(lat1))*math.Sin(rad(lat2)) - math.Sin(rad(lat1))*math.Cos(rad(lat2))*math.Cos(rad(lng2-lng1))
		want := math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)

		assert.GreaterOrEqual(t, got, 0.0)
		assert.Less(t, got, 360.0)
		diff := math.Abs(got - want)
		assert.True(t, diff < 1e-9 || math.Abs(diff-360) < 1e-9, "bearing %f vs %f", got, want)
	}
}

func TestNormalizeHeading(t *testing.T) {
	assert.InDelta(t, 0, kernel.NormalizeHeading(360), 1e-12)
	assert.InDelta(t, 350, kernel.NormalizeHeading(-10), 1e-12)
	assert.InDelta(t, 10, kernel.NormalizeHeading(730), 1e-12)
	assert.InDelta(t, 0, kernel.NormalizeHeading(-1e-18), 1e-12)
}

func TestNewRandomGeoPointNear(t *testing.T) {
	for range 100 {
		p, err := kernel.NewRandomGeoPointNear(kernel.DefaultGeoPoint, 2000)
		require.NoError(t, err)

		d, err := p.DistanceTo(kernel.DefaultGeoPoint)
		require.NoError(t, err)
		assert.LessOrEqual(t, d, 2000*math.Sqrt2+1)
	}

	_, err := kernel.NewRandomGeoPointNear(kernel.GeoPoint{}, 100)
	require.Error(t, err)
}

func TestGeoPoint_JSON(t *testing.T) {
	b, err := json.Marshal(kernel.DefaultGeoPoint)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":22.7196,"lng":75.8577}`, string(b))

	var back kernel.GeoPoint
	require.NoError(t, json.Unmarshal(b, &back))
	eq, err := back.IsEqual(kernel.DefaultGeoPoint)
	require.NoError(t, err)
	assert.True(t, eq)

	require.Error(t, json.Unmarshal([]byte(`{"lat":999,"lng":0}`), &back))
}

func TestRoute(t *testing.T) {
	a := kernel.MustNewGeoPoint(0, 0)
	b := kernel.MustNewGeoPoint(0, 1)

	_, err := kernel.NewRoute([]kernel.GeoPoint{a})
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	r, err := kernel.NewRoute([]kernel.GeoPoint{a, b})
	require.NoError(t, err)
	assert.False(t, r.Fallback)
	assert.InDelta(t, 111195, r.Length(), 1)

	line := kernel.StraightLine(a, b)
	assert.True(t, line.Fallback)
	assert.Len(t, line.Points, 2)
}
