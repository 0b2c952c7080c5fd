package simulated_test

import (
	"context"
	"testing"
	"time"

	"partner/internal/adapters/out/simulated"
	"partner/internal/core/domain/model/kernel"
	"partner/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferSource_NextOffer(t *testing.T) {
	src := simulated.NewOfferSource(1000, 3000, 7)
	near := kernel.DefaultGeoPoint

	for range 20 {
		o, ok, err := src.NextOffer(t.Context(), near)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, o.Validate())

		toPickup, err := near.DistanceTo(o.Pickup())
		require.NoError(t, err)
		assert.LessOrEqual(t, toPickup, 1000*1.5)

		e := o.Estimates()
		assert.Greater(t, e.Earnings, 0.0)
		assert.InDelta(t, e.PickupDistance+e.DropDistance, e.TripDistance, 1)
		assert.Greater(t, e.TripTime, time.Duration(0))
		assert.Regexp(t, `^ORD-\d{4}$`, o.OrderID())
	}
}

func TestOfferSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, ok, err := simulated.NewOfferSource(0, 0, 1).NextOffer(ctx, kernel.DefaultGeoPoint)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestOfferSource_InvalidCenter(t *testing.T) {
	_, _, err := simulated.NewOfferSource(0, 0, 1).NextOffer(t.Context(), kernel.GeoPoint{})
	require.ErrorIs(t, err, kernel.ErrGeoPointIsNotConstructed)
}

func TestAlertPlayer_Play(t *testing.T) {
	p := simulated.NewAlertPlayer(10*time.Millisecond, logging.Discard())
	require.NoError(t, p.Play(t.Context()))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	slow := simulated.NewAlertPlayer(time.Hour, logging.Discard())
	require.ErrorIs(t, slow.Play(ctx), context.Canceled)

	assert.Equal(t, int64(1), p.Plays())
	assert.Equal(t, int64(1), slow.Plays())
}
