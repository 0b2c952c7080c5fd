package offer_test

import (
	"encoding/json"
	"testing"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/offer"
	"partner/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParties() (offer.Party, offer.Party) {
	return offer.Party{Name: "Sarafa Kitchen", Location: kernel.MustNewGeoPoint(22.7203, 75.8567)},
		offer.Party{Name: "R. Sharma", Phone: "+91-98000-00000", Location: kernel.MustNewGeoPoint(22.7250, 75.8700)}
}

func TestNewOffer(t *testing.T) {
	restaurant, customer := validParties()
	est := offer.Estimates{PickupDistance: 850, DropDistance: 2100, TripDistance: 2950, TripTime: 14 * time.Minute, Earnings: 42.5}

	t.Run("valid offer", func(t *testing.T) {
		id := kernel.NewUUID()
		o, err := offer.NewOffer(id, " ORD-1042 ", restaurant, customer, est)

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.True(t, id.IsEqual(o.ID()))
		assert.Equal(t, "ORD-1042", o.OrderID())
		assert.Equal(t, restaurant.Location, o.Pickup())
		assert.Equal(t, customer.Location, o.Drop())
		assert.InDelta(t, 42.5, o.Estimates().Earnings, 1e-9)
	})

	t.Run("collects every violation", func(t *testing.T) {
		_, err := offer.NewOffer(kernel.UUID{}, "", offer.Party{}, customer, offer.Estimates{Earnings: -1, TripTime: -time.Second})

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), "orderID")
		assert.Contains(t, err.Error(), "restaurant location")
		assert.Contains(t, err.Error(), "earnings")
		assert.Contains(t, err.Error(), "tripTime")
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var o offer.Offer
		require.ErrorIs(t, o.Validate(), offer.ErrOfferIsNotConstructed)
	})
}

func TestOffer_JSONRoundTripKeepsValidation(t *testing.T) {
	restaurant, customer := validParties()
	o, err := offer.NewOffer(kernel.NewUUID(), "ORD-7", restaurant, customer, offer.Estimates{TripTime: 90 * time.Second, Earnings: 30})
	require.NoError(t, err)

	b, err := json.Marshal(o)
	require.NoError(t, err)

	var back offer.Offer
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, o.ID().IsEqual(back.ID()))
	assert.Equal(t, 90*time.Second, back.Estimates().TripTime)

	broken := []byte(`{"id":"` + o.ID().String() + `","orderId":"","restaurant":{"location":{"lat":1,"lng":1}},"customer":{"location":{"lat":1,"lng":1}}}`)
	require.Error(t, json.Unmarshal(broken, &back))
}
