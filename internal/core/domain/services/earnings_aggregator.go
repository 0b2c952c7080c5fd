package services

import (
	"time"

	"partner/internal/core/domain/model/delivery"
	"partner/internal/core/domain/model/wallet"
)

// TripSummary aggregates settled deliveries over a period.
type TripSummary struct {
	Trips      int
	ActiveTime time.Duration
	// Distance is in meters.
	Distance float64
}

// EarningsAggregator derives period figures from the wallet log and the delivery
// history. It is stateless: identical inputs always produce identical output.
//
// Rules:
//   - a period is [Period.Start(now), now], both ends inclusive
//   - only Completed payment and bonus transactions count as earnings
//   - a transaction without date and createdAt cannot be attributed and is skipped
//   - a delivery is attributed to the moment it was handed over
type EarningsAggregator struct{}

func NewEarningsAggregator() EarningsAggregator {
	return EarningsAggregator{}
}

// Earnings sums the amounts earned in period.
func (EarningsAggregator) Earnings(state wallet.State, period wallet.Period, now time.Time) float64 {
	var total float64
	for _, tx := range state.Transactions {
		if !tx.IsEarning() {
			continue
		}
		ts, ok := tx.Timestamp()
		if !ok || !period.Contains(ts, now) {
			continue
		}
		total += tx.Amount
	}
	return total
}

// Trips counts deliveries handed over in period along with their active time and
// distance. Invalid records are skipped.
func (EarningsAggregator) Trips(records []*delivery.Record, period wallet.Period, now time.Time) TripSummary {
	var s TripSummary
	for _, r := range records {
		if r.Validate() != nil || !period.Contains(r.DeliveredAt(), now) {
			continue
		}
		s.Trips++
		s.ActiveTime += r.ActiveTime()
		s.Distance += r.Distance()
	}
	return s
}
