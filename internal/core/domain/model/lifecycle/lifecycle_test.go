package lifecycle_test

import (
	"encoding/json"
	"testing"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/core/domain/model/offer"
	"partner/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 12, 18, 30, 0, 0, time.UTC)

func newOffer(t *testing.T) offer.Offer {
	t.Helper()
	o, err := offer.NewOffer(
		kernel.NewUUID(),
		"ORD-2201",
		offer.Party{Name: "Chappan Dukan", Location: kernel.MustNewGeoPoint(22.7244, 75.8839)},
		offer.Party{Name: "A. Verma", Location: kernel.MustNewGeoPoint(22.7533, 75.8937)},
		offer.Estimates{PickupDistance: 1200, DropDistance: 3400, TripDistance: 4600, TripTime: 18 * time.Minute, Earnings: 55},
	)
	require.NoError(t, err)
	return o
}

// driveTo walks a fresh lifecycle along the happy path until it reaches target.
func driveTo(t *testing.T, target lifecycle.Stage) *lifecycle.Lifecycle {
	t.Helper()
	l := lifecycle.New()
	steps := []func() error{
		func() error { return l.Offer(newOffer(t), lifecycle.DefaultCountdown, t0) },
		func() error { return l.Accept(t0.Add(time.Minute)) },
		l.StartPickupLeg,
		l.ArriveAtPickup,
		l.ConfirmPickupReached,
		l.ConfirmOrderID,
		l.ArriveAtDrop,
		func() error { return l.ConfirmDropReached(t0.Add(20 * time.Minute)) },
		l.ConfirmDelivered,
		func() error {
			r, err := lifecycle.NewRating(4, "friendly")
			require.NoError(t, err)
			return l.SubmitRating(r)
		},
	}
	for _, step := range steps {
		if l.Stage() == target {
			return l
		}
		require.NoError(t, step(), "while leaving %s", l.Stage())
	}
	require.Equal(t, target, l.Stage())
	return l
}

func TestLifecycle_HappyPath(t *testing.T) {
	l := driveTo(t, lifecycle.Settled)

	rating, ok := l.Rating()
	require.True(t, ok)
	assert.Equal(t, 4, rating.Stars())
	assert.Equal(t, t0.Add(time.Minute), l.AcceptedAt())
	assert.Equal(t, t0.Add(20*time.Minute), l.DeliveredAt())

	c, err := l.CloseSettlement(t0.Add(25 * time.Minute))
	require.NoError(t, err)

	assert.Equal(t, lifecycle.Idle, l.Stage())
	assert.Equal(t, lifecycle.OutcomeSettled, c.Outcome)
	assert.Equal(t, "ORD-2201", c.Offer.OrderID())
	require.NotNil(t, c.Rating)
	assert.Equal(t, "friendly", c.Rating.Review())

	_, ok = l.ActiveOrder()
	assert.False(t, ok)
	_, ok = l.Rating()
	assert.False(t, ok)
	assert.Equal(t, lifecycle.OutcomeSettled, l.LastOutcome())
}

func TestLifecycle_Offer(t *testing.T) {
	t.Run("second offer is refused while one is active", func(t *testing.T) {
		for _, stage := range []lifecycle.Stage{lifecycle.Offered, lifecycle.EnRouteToPickup, lifecycle.Reviewed} {
			l := driveTo(t, stage)
			active, _ := l.ActiveOrder()

			err := l.Offer(newOffer(t), lifecycle.DefaultCountdown, t0)

			require.ErrorIs(t, err, lifecycle.ErrOfferAlreadyActive)
			assert.Equal(t, stage, l.Stage())
			current, _ := l.ActiveOrder()
			assert.True(t, active.ID().IsEqual(current.ID()))
		}
	})

	t.Run("countdown must be positive", func(t *testing.T) {
		l := lifecycle.New()
		require.ErrorIs(t, l.Offer(newOffer(t), 0, t0), errs.ErrValueIsInvalid)
		assert.Equal(t, lifecycle.Idle, l.Stage())
	})

	t.Run("unconstructed offer is refused", func(t *testing.T) {
		l := lifecycle.New()
		require.ErrorIs(t, l.Offer(offer.Offer{}, 10, t0), offer.ErrOfferIsNotConstructed)
	})
}

func TestLifecycle_Countdown(t *testing.T) {
	l := lifecycle.New()
	require.NoError(t, l.Offer(newOffer(t), 3, t0))

	_, err := l.TimeOut(t0)
	require.ErrorIs(t, err, lifecycle.ErrCountdownIsNotExpired)

	for range 2 {
		expired, err := l.Tick()
		require.NoError(t, err)
		assert.False(t, expired)
	}
	expired, err := l.Tick()
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, 0, l.CountdownRemaining())

	c, err := l.TimeOut(t0.Add(3 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, lifecycle.OutcomeTimedOut, c.Outcome)
	assert.Empty(t, c.Reason)
	assert.Equal(t, lifecycle.Idle, l.Stage())

	_, err = l.Tick()
	require.ErrorIs(t, err, lifecycle.ErrCountdownIsNotRunning)
}

func TestLifecycle_Reject(t *testing.T) {
	l := driveTo(t, lifecycle.Offered)

	_, err := l.Reject(t0)
	require.ErrorIs(t, err, lifecycle.ErrRejectionReasonRequired)
	assert.Equal(t, lifecycle.Offered, l.Stage())

	require.Error(t, l.SelectRejectionReason("not-a-reason"))
	require.NoError(t, l.SelectRejectionReason(lifecycle.ReasonLowEarnings))

	c, err := l.Reject(t0.Add(10 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, lifecycle.OutcomeRejected, c.Outcome)
	assert.Equal(t, lifecycle.ReasonLowEarnings, c.Reason)
	assert.Equal(t, lifecycle.Idle, l.Stage())
	assert.Equal(t, 0, l.CountdownRemaining())
	_, ok := l.RejectionReason()
	assert.False(t, ok)

	t.Run("reject after accept is illegal", func(t *testing.T) {
		l := driveTo(t, lifecycle.Accepted)
		_, err := l.Reject(t0)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, lifecycle.Accepted, l.Stage())
	})
}

func TestLifecycle_AcceptClearsCountdown(t *testing.T) {
	l := driveTo(t, lifecycle.Offered)
	require.NoError(t, l.SelectRejectionReason(lifecycle.ReasonTooFar))

	require.NoError(t, l.Accept(t0))

	assert.Equal(t, lifecycle.Accepted, l.Stage())
	assert.Equal(t, 0, l.CountdownRemaining())
	_, ok := l.RejectionReason()
	assert.False(t, ok)

	require.Error(t, l.Accept(t0), "accept fires once")
}

func TestLifecycle_Dismiss(t *testing.T) {
	t.Run("order id panel is blocking", func(t *testing.T) {
		l := driveTo(t, lifecycle.OrderIDConfirmed)

		for range 3 {
			c, err := l.Dismiss(t0)
			require.ErrorIs(t, err, lifecycle.ErrPanelIsBlocking)
			assert.Nil(t, c)
			assert.Equal(t, lifecycle.OrderIDConfirmed, l.Stage())
		}

		require.NoError(t, l.ConfirmOrderID())
		assert.Equal(t, lifecycle.EnRouteToDrop, l.Stage())
	})

	t.Run("delivered panel dismisses to review", func(t *testing.T) {
		l := driveTo(t, lifecycle.Delivered)
		c, err := l.Dismiss(t0)
		require.NoError(t, err)
		assert.Nil(t, c)
		assert.Equal(t, lifecycle.Reviewed, l.Stage())
	})

	t.Run("payment summary dismisses to idle", func(t *testing.T) {
		l := driveTo(t, lifecycle.Settled)
		c, err := l.Dismiss(t0)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, lifecycle.OutcomeSettled, c.Outcome)
		assert.Equal(t, lifecycle.Idle, l.Stage())
	})

	t.Run("nothing to dismiss", func(t *testing.T) {
		for _, stage := range []lifecycle.Stage{lifecycle.Idle, lifecycle.Offered, lifecycle.Reviewed} {
			l := driveTo(t, stage)
			_, err := l.Dismiss(t0)
			require.ErrorIs(t, err, lifecycle.ErrNothingToDismiss)
			assert.Equal(t, stage, l.Stage())
		}
	})
}

func TestLifecycle_RoutesAndTarget(t *testing.T) {
	l := driveTo(t, lifecycle.Accepted)
	_, ok := l.Target()
	assert.False(t, ok)
	require.ErrorIs(t, l.AttachRoute(kernel.StraightLine(kernel.DefaultGeoPoint, kernel.DefaultGeoPoint)), lifecycle.ErrRouteLegMismatch)

	require.NoError(t, l.StartPickupLeg())
	o, _ := l.ActiveOrder()
	target, ok := l.Target()
	require.True(t, ok)
	assert.Equal(t, o.Pickup(), target)

	require.ErrorIs(t, l.AttachRoute(kernel.Route{}), kernel.ErrRouteIsTooShort)
	require.NoError(t, l.AttachRoute(kernel.StraightLine(kernel.DefaultGeoPoint, o.Pickup())))
	pickup, ok := l.PickupRoute()
	require.True(t, ok)
	assert.True(t, pickup.Fallback)
}

func TestLifecycle_SubmitRating(t *testing.T) {
	l := driveTo(t, lifecycle.Reviewed)
	require.ErrorIs(t, l.SubmitRating(lifecycle.Rating{}), lifecycle.ErrRatingIsNotConstructed)
	assert.Equal(t, lifecycle.Reviewed, l.Stage())

	l = driveTo(t, lifecycle.Delivered)
	r, err := lifecycle.NewRating(5, "")
	require.NoError(t, err)
	require.ErrorIs(t, l.SubmitRating(r), errs.ErrValueIsInvalid)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	for _, stage := range []lifecycle.Stage{lifecycle.Offered, lifecycle.EnRouteToDrop, lifecycle.Settled} {
		t.Run(stage.String(), func(t *testing.T) {
			l := driveTo(t, stage)
			if stage == lifecycle.EnRouteToDrop {
				o, _ := l.ActiveOrder()
				require.NoError(t, l.AttachRoute(kernel.StraightLine(o.Pickup(), o.Drop())))
			}

			b, err := json.Marshal(l.Snapshot())
			require.NoError(t, err)
			assert.Contains(t, string(b), `"stage":"`+stage.String()+`"`)

			var s lifecycle.Snapshot
			require.NoError(t, json.Unmarshal(b, &s))
			restored, err := lifecycle.Restore(s)
			require.NoError(t, err)

			assert.Equal(t, l.Stage(), restored.Stage())
			assert.Equal(t, l.CountdownRemaining(), restored.CountdownRemaining())
			assert.True(t, l.OfferedAt().Equal(restored.OfferedAt()))
			a, _ := l.ActiveOrder()
			b2, _ := restored.ActiveOrder()
			assert.True(t, a.ID().IsEqual(b2.ID()))
			_, hadRoute := l.DropRoute()
			_, hasRoute := restored.DropRoute()
			assert.Equal(t, hadRoute, hasRoute)
		})
	}
}

func TestRestore_RejectsInconsistentSnapshots(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		s := lifecycle.New().Snapshot()
		s.Version = 99
		_, err := lifecycle.Restore(s)
		require.ErrorIs(t, err, errs.ErrVersionIsInvalid)
	})

	t.Run("active stage without offer", func(t *testing.T) {
		s := lifecycle.Snapshot{Version: lifecycle.SnapshotVersion, Stage: lifecycle.PickupReached}
		_, err := lifecycle.Restore(s)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("settled without rating", func(t *testing.T) {
		s := driveTo(t, lifecycle.Settled).Snapshot()
		s.Stars = 0
		_, err := lifecycle.Restore(s)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("idle with an offer", func(t *testing.T) {
		o := newOffer(t)
		s := lifecycle.Snapshot{Version: lifecycle.SnapshotVersion, Stage: lifecycle.Idle, Offer: &o}
		_, err := lifecycle.Restore(s)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
