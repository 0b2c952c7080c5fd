package delivery_test

import (
	"testing"
	"time"

	"partner/internal/core/domain/model/delivery"
	"partner/internal/core/domain/model/kernel"
	"partner/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	accepted := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	tl := delivery.Timeline{
		AcceptedAt:  accepted,
		DeliveredAt: accepted.Add(22 * time.Minute),
		SettledAt:   accepted.Add(25 * time.Minute),
	}

	t.Run("valid", func(t *testing.T) {
		offerID := kernel.NewUUID()
		r, err := delivery.NewRecord(offerID, "ORD-9", 48, 5200, tl, 5, " great ")

		require.NoError(t, err)
		require.NoError(t, r.Validate())
		assert.True(t, offerID.IsEqual(r.OfferID()))
		assert.Equal(t, 22*time.Minute, r.ActiveTime())
		assert.Equal(t, "great", r.Review())
	})

	t.Run("collects violations", func(t *testing.T) {
		_, err := delivery.NewRecord(kernel.UUID{}, " ", -1, -1, delivery.Timeline{}, 0, "")

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("timeline out of order", func(t *testing.T) {
		bad := tl
		bad.DeliveredAt = accepted.Add(-time.Minute)
		_, err := delivery.NewRecord(kernel.NewUUID(), "ORD-9", 1, 1, bad, 3, "")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("nil is not constructed", func(t *testing.T) {
		var r *delivery.Record
		require.ErrorIs(t, r.Validate(), delivery.ErrRecordIsNotConstructed)
	})
}
