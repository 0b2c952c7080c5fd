package offer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/pkg/errs"
	"partner/internal/pkg/guard"
)

var ErrOfferIsNotConstructed = errors.New("Offer must be created via NewOffer constructor")

// Party is one end of a delivery: the restaurant to pick up from or the customer to
// deliver to.
type Party struct {
	Name     string
	Phone    string
	Location kernel.GeoPoint
}

// Estimates carries the backend's figures for the trip. Distances are meters.
type Estimates struct {
	PickupDistance float64
	DropDistance   float64
	TripDistance   float64
	TripTime       time.Duration
	Earnings       float64
}

// Offer is a proposed delivery job. It is immutable: once accepted it travels with
// the lifecycle unchanged, and it is discarded on reject or timeout.
type Offer struct {
	id         kernel.UUID
	orderID    string
	restaurant Party
	customer   Party
	estimates  Estimates

	guard guard.ConstructorGuard
}

// NewOffer validates an offer received from the backend (or generated in demo mode).
//
// Rules:
//   - id must be a constructed UUID and orderID must not be blank
//   - restaurant and customer locations must be valid GeoPoints
//   - every distance, the trip time and the earnings must be non-negative
func NewOffer(id kernel.UUID, orderID string, restaurant, customer Party, estimates Estimates) (Offer, error) {
	o := Offer{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		o.setID(id),
		o.setOrderID(orderID),
		o.setParty("restaurant", restaurant, &o.restaurant),
		o.setParty("customer", customer, &o.customer),
		o.setEstimates(estimates),
	); err != nil {
		return Offer{}, err
	}

	return o, nil
}

func (o Offer) Validate() error {
	return o.guard.Validate(ErrOfferIsNotConstructed)
}

func (o Offer) ID() kernel.UUID { return o.id }
func (o Offer) OrderID() string { return o.orderID }
func (o Offer) Restaurant() Party { return o.restaurant }
func (o Offer) Customer() Party { return o.customer }
func (o Offer) Estimates() Estimates { return o.estimates }
func (o Offer) Pickup() kernel.GeoPoint { return o.restaurant.Location }
func (o Offer) Drop() kernel.GeoPoint { return o.customer.Location }

func (o Offer) String() string {
	return fmt.Sprintf("Offer(%s, order=%s)", o.id, o.orderID)
}

func (o *Offer) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Offer) setOrderID(orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errs.NewValueIsRequiredError("orderID")
	}
	o.orderID = orderID
	return nil
}

func (o *Offer) setParty(name string, p Party, target *Party) error {
	if err := p.Location.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause(name+" location", err)
	}
	*target = p
	return nil
}

func (o *Offer) setEstimates(e Estimates) error {
	var problems []error
	check := func(name string, v float64) {
		if v < 0 {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%v is negative", v)))
		}
	}
	check("pickupDistance", e.PickupDistance)
	check("dropDistance", e.DropDistance)
	check("tripDistance", e.TripDistance)
	check("earnings", e.Earnings)
	if e.TripTime < 0 {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("tripTime", fmt.Errorf("%s is negative", e.TripTime)))
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}
	o.estimates = e
	return nil
}

type partyJSON struct {
	Name     string          `json:"name"`
	Phone    string          `json:"phone,omitempty"`
	Location kernel.GeoPoint `json:"location"`
}

type offerJSON struct {
	ID               kernel.UUID `json:"id"`
	OrderID          string      `json:"orderId"`
	Restaurant       partyJSON   `json:"restaurant"`
	Customer         partyJSON   `json:"customer"`
	PickupDistance   float64     `json:"pickupDistance"`
	DropDistance     float64     `json:"dropDistance"`
	TripDistance     float64     `json:"tripDistance"`
	TripTimeSeconds  float64     `json:"tripTimeSeconds"`
	EstimatedEarning float64     `json:"estimatedEarnings"`
}

func (o Offer) MarshalJSON() ([]byte, error) {
	return json.Marshal(offerJSON{
		ID:               o.id,
		OrderID:          o.orderID,
		Restaurant:       partyJSON(o.restaurant),
		Customer:         partyJSON(o.customer),
		PickupDistance:   o.estimates.PickupDistance,
		DropDistance:     o.estimates.DropDistance,
		TripDistance:     o.estimates.TripDistance,
		TripTimeSeconds:  o.estimates.TripTime.Seconds(),
		EstimatedEarning: o.estimates.Earnings,
	})
}

// UnmarshalJSON restores an offer through NewOffer so snapshots cannot smuggle in
// invalid data.
func (o *Offer) UnmarshalJSON(b []byte) error {
	var raw offerJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := NewOffer(raw.ID, raw.OrderID, Party(raw.Restaurant), Party(raw.Customer), Estimates{
		PickupDistance: raw.PickupDistance,
		DropDistance:   raw.DropDistance,
		TripDistance:   raw.TripDistance,
		TripTime:       time.Duration(raw.TripTimeSeconds * float64(time.Second)),
		Earnings:       raw.EstimatedEarning,
	})
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
