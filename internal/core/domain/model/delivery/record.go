package delivery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/pkg/errs"
	"partner/internal/pkg/guard"
)

var ErrRecordIsNotConstructed = errors.New("Record must be created via NewRecord or RestoreRecord")

// Record is a settled delivery kept for history and period aggregates.
type Record struct {
	id          kernel.UUID
	offerID     kernel.UUID
	orderID     string
	earnings    float64
	distance    float64
	acceptedAt  time.Time
	deliveredAt time.Time
	settledAt   time.Time
	stars       int
	review      string

	guard guard.ConstructorGuard
}

// Timeline holds the moments a delivery passed through.
type Timeline struct {
	AcceptedAt  time.Time
	DeliveredAt time.Time
	SettledAt   time.Time
}

// NewRecord builds a record for a freshly settled delivery.
//
// Rules:
//   - offerID must be constructed and orderID not blank
//   - earnings and distance (meters) are non-negative
//   - acceptedAt ≤ deliveredAt ≤ settledAt, all set
//   - stars within 1..5
func NewRecord(
	offerID kernel.UUID,
	orderID string,
	earnings, distance float64,
	timeline Timeline,
	stars int,
	review string,
) (*Record, error) {
	return RestoreRecord(kernel.NewUUID(), offerID, orderID, earnings, distance, timeline, stars, review)
}

// RestoreRecord rebuilds a record loaded from storage.
func RestoreRecord(
	id, offerID kernel.UUID,
	orderID string,
	earnings, distance float64,
	timeline Timeline,
	stars int,
	review string,
) (*Record, error) {
	r := &Record{guard: guard.NewConstructorGuard(), review: strings.TrimSpace(review)}

	if err := errors.Join(
		r.setIDs(id, offerID),
		r.setOrderID(orderID),
		r.setAmounts(earnings, distance),
		r.setTimeline(timeline),
		r.setStars(stars),
	); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) Validate() error {
	if r == nil {
		return ErrRecordIsNotConstructed
	}
	return r.guard.Validate(ErrRecordIsNotConstructed)
}

func (r *Record) ID() kernel.UUID { return r.id }
func (r *Record) OfferID() kernel.UUID { return r.offerID }
func (r *Record) OrderID() string { return r.orderID }
func (r *Record) Earnings() float64 { return r.earnings }
func (r *Record) Distance() float64 { return r.distance }
func (r *Record) AcceptedAt() time.Time { return r.acceptedAt }
func (r *Record) DeliveredAt() time.Time { return r.deliveredAt }
func (r *Record) SettledAt() time.Time { return r.settledAt }
func (r *Record) Stars() int { return r.stars }
func (r *Record) Review() string { return r.review }

// ActiveTime is the time spent from accepting the offer to handing it over.
func (r *Record) ActiveTime() time.Duration {
	return r.deliveredAt.Sub(r.acceptedAt)
}

func (r *Record) setIDs(id, offerID kernel.UUID) error {
	if err := errors.Join(id.Validate(), offerID.Validate()); err != nil {
		return err
	}
	r.id, r.offerID = id, offerID
	return nil
}

func (r *Record) setOrderID(orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errs.NewValueIsRequiredError("orderID")
	}
	r.orderID = orderID
	return nil
}

func (r *Record) setAmounts(earnings, distance float64) error {
	var err error
	if earnings < 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause("earnings", fmt.Errorf("%v is negative", earnings)))
	}
	if distance < 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause("distance", fmt.Errorf("%v is negative", distance)))
	}
	if err != nil {
		return err
	}
	r.earnings, r.distance = earnings, distance
	return nil
}

func (r *Record) setTimeline(tl Timeline) error {
	if tl.AcceptedAt.IsZero() || tl.DeliveredAt.IsZero() || tl.SettledAt.IsZero() {
		return errs.NewValueIsRequiredError("timeline")
	}
	if tl.DeliveredAt.Before(tl.AcceptedAt) || tl.SettledAt.Before(tl.DeliveredAt) {
		return errs.NewValueIsInvalidErrorWithCause(
			"timeline",
			fmt.Errorf("accepted %s, delivered %s, settled %s are out of order", tl.AcceptedAt, tl.DeliveredAt, tl.SettledAt),
		)
	}
	r.acceptedAt, r.deliveredAt, r.settledAt = tl.AcceptedAt, tl.DeliveredAt, tl.SettledAt
	return nil
}

func (r *Record) setStars(stars int) error {
	if stars < 1 || stars > 5 {
		return errs.NewValueIsOutOfRangeError("stars", stars, 1, 5)
	}
	r.stars = stars
	return nil
}
