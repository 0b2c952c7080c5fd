package queries

import (
	"errors"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/pkg/errs"
	"partner/internal/pkg/guard"
)

const (
	DefaultRecentDeliveries = 20
	MaxRecentDeliveries     = 100
)

var ErrGetRecentDeliveriesQueryIsNotConstructed = errors.New(
	"GetRecentDeliveriesQuery must be created via NewGetRecentDeliveriesQuery constructor",
)

// GetRecentDeliveriesQuery lists the latest settled deliveries, newest first.
type GetRecentDeliveriesQuery struct {
	limit int

	guard guard.ConstructorGuard
}

// NewGetRecentDeliveriesQuery accepts a limit in 1..MaxRecentDeliveries; zero means
// DefaultRecentDeliveries.
func NewGetRecentDeliveriesQuery(limit int) (GetRecentDeliveriesQuery, error) {
	if limit == 0 {
		limit = DefaultRecentDeliveries
	}
	if limit < 1 || limit > MaxRecentDeliveries {
		return GetRecentDeliveriesQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxRecentDeliveries)
	}
	return GetRecentDeliveriesQuery{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q GetRecentDeliveriesQuery) Validate() error {
	return q.guard.Validate(ErrGetRecentDeliveriesQueryIsNotConstructed)
}

func (q GetRecentDeliveriesQuery) Limit() int {
	return q.limit
}

// GetRecentDeliveriesQueryResponse is one row of the trip history screen.
type GetRecentDeliveriesQueryResponse struct {
	ID             kernel.UUID `json:"id"`
	OrderID        string      `json:"orderId"`
	Earnings       float64     `json:"earnings"`
	DistanceMeters float64     `json:"distanceMeters"`
	AcceptedAt     time.Time   `json:"acceptedAt"`
	DeliveredAt    time.Time   `json:"deliveredAt"`
	Stars          int         `json:"stars"`
	Review         string      `json:"review,omitempty"`
}
