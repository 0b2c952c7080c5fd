package commands

import (
	"errors"

	"partner/internal/core/domain/model/delivery"
	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/pkg/errs"
	"partner/internal/pkg/guard"
)

var (
	ErrRecordDeliveryCommandIsNotConstructed = errors.New(
		"RecordDeliveryCommand must be created via NewRecordDeliveryCommand constructor",
	)
	ErrDeliveryIsNotSettled = errors.New("only settled deliveries are recorded")
)

// RecordDeliveryCommand stores a delivery the partner has just settled.
//
// Example:
//
//	closure, _ := l.CloseSettlement(time.Now())
//	cmd, err := NewRecordDeliveryCommand(closure)
//	if err != nil {
//	    return err
//	}
//	return handler.Handle(ctx, cmd)
type RecordDeliveryCommand struct { //nolint:recvcheck //using for validation
	offerID  kernel.UUID
	orderID  string
	earnings float64
	distance float64
	timeline delivery.Timeline
	stars    int
	review   string

	guard guard.ConstructorGuard
}

// NewRecordDeliveryCommand extracts the history fields from a settled closure.
// The travelled distance is the length of both route legs when they are known and
// the offer's trip estimate otherwise.
func NewRecordDeliveryCommand(c lifecycle.Closure) (RecordDeliveryCommand, error) {
	if c.Outcome != lifecycle.OutcomeSettled {
		return RecordDeliveryCommand{}, ErrDeliveryIsNotSettled
	}
	if err := c.Offer.Validate(); err != nil {
		return RecordDeliveryCommand{}, err
	}
	if c.Rating == nil {
		return RecordDeliveryCommand{}, errs.NewValueIsRequiredError("rating")
	}

	cmd := RecordDeliveryCommand{
		offerID:  c.Offer.ID(),
		orderID:  c.Offer.OrderID(),
		earnings: c.Offer.Estimates().Earnings,
		distance: travelled(c),
		timeline: delivery.Timeline{
			AcceptedAt:  c.AcceptedAt,
			DeliveredAt: c.DeliveredAt,
			SettledAt:   c.ClosedAt,
		},
		stars:  c.Rating.Stars(),
		review: c.Rating.Review(),
		guard:  guard.NewConstructorGuard(),
	}
	return cmd, nil
}

func (c RecordDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrRecordDeliveryCommandIsNotConstructed)
}

func (c RecordDeliveryCommand) OfferID() kernel.UUID {
	return c.offerID
}

func (c RecordDeliveryCommand) OrderID() string {
	return c.orderID
}

func travelled(c lifecycle.Closure) float64 {
	if c.PickupRoute == nil && c.DropRoute == nil {
		return c.Offer.Estimates().TripDistance
	}
	var d float64
	if c.PickupRoute != nil {
		d += c.PickupRoute.Length()
	}
	if c.DropRoute != nil {
		d += c.DropRoute.Length()
	}
	return d
}
