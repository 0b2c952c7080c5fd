// Package simulated provides demo stand-ins for the offer backend and the speaker,
// for running the client without either.
package simulated

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/offer"
)

const (
	DefaultPickupRadius = 1500.0
	DefaultDropRadius   = 4000.0

	baseFare      = 25.0
	farePerKm     = 8.0
	averageSpeed  = 6.0 // m/s
	pickupMinutes = 4
)

var (
	restaurants = []string{"Sarafa Chaat House", "Chappan Dukan Grill", "Apna Sweets", "Shreemaya Kitchen"}
	customers   = []string{"Aarav", "Diya", "Kabir", "Meera", "Rohan", "Saanvi"}
)

// OfferSource invents an offer around the partner on every call.
type OfferSource struct {
	pickupRadius float64
	dropRadius   float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewOfferSource(pickupRadius, dropRadius float64, seed uint64) *OfferSource {
	if pickupRadius <= 0 {
		pickupRadius = DefaultPickupRadius
	}
	if dropRadius <= 0 {
		dropRadius = DefaultDropRadius
	}
	return &OfferSource{
		pickupRadius: pickupRadius,
		dropRadius:   dropRadius,
		rnd:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // demo data
	}
}

func (s *OfferSource) NextOffer(ctx context.Context, near kernel.GeoPoint) (offer.Offer, bool, error) {
	if err := ctx.Err(); err != nil {
		return offer.Offer{}, false, err
	}

	pickup, err := kernel.NewRandomGeoPointNear(near, s.pickupRadius)
	if err != nil {
		return offer.Offer{}, false, err
	}
	drop, err := kernel.NewRandomGeoPointNear(pickup, s.dropRadius)
	if err != nil {
		return offer.Offer{}, false, err
	}

	toPickup, _ := near.DistanceTo(pickup)
	trip, _ := pickup.DistanceTo(drop)

	s.mu.Lock()
	orderID := fmt.Sprintf("ORD-%04d", s.rnd.IntN(10000))
	restaurant := restaurants[s.rnd.IntN(len(restaurants))]
	customer := customers[s.rnd.IntN(len(customers))]
	phone := fmt.Sprintf("+91 9%09d", s.rnd.IntN(1_000_000_000))
	s.mu.Unlock()

	o, err := offer.NewOffer(
		kernel.NewUUID(),
		orderID,
		offer.Party{Name: restaurant, Location: pickup},
		offer.Party{Name: customer, Phone: phone, Location: drop},
		offer.Estimates{
			PickupDistance: math.Round(toPickup),
			DropDistance:   math.Round(trip),
			TripDistance:   math.Round(toPickup + trip),
			TripTime:       time.Duration((toPickup+trip)/averageSpeed)*time.Second + pickupMinutes*time.Minute,
			Earnings:       math.Round((baseFare+farePerKm*trip/1000)*100) / 100,
		},
	)
	if err != nil {
		return offer.Offer{}, false, err
	}
	return o, true, nil
}
