package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/offer"
	"partner/internal/pkg/errs"
)

// DefaultCountdown is how long an offer waits for a decision before it is
// rejected automatically.
const DefaultCountdown = 300

var (
	ErrLifecycleIsNotConstructed = errors.New("Lifecycle must be created via New or Restore")

	// ErrOfferAlreadyActive enforces the single active offer invariant.
	ErrOfferAlreadyActive = errs.NewValueIsInvalidErrorWithCause("offer", errors.New("an order is already active"))

	// ErrPanelIsBlocking is returned when a backdrop tap or swipe-down targets the
	// order-id panel. The lifecycle stays where it is.
	ErrPanelIsBlocking = errs.NewValueIsInvalidErrorWithCause("dismiss", errors.New("order id panel can only be closed by its own confirmation"))

	ErrRejectionReasonRequired = errs.NewValueIsRequiredError("rejection reason")
	ErrCountdownIsNotRunning   = errs.NewValueIsInvalidErrorWithCause("countdown", errors.New("no offer is waiting for a decision"))
	ErrCountdownIsNotExpired   = errs.NewValueIsInvalidErrorWithCause("countdown", errors.New("countdown has not reached zero"))
	ErrNothingToDismiss        = errs.NewValueIsInvalidErrorWithCause("dismiss", errors.New("no dismissible panel is open"))
	ErrRouteLegMismatch        = errs.NewValueIsInvalidErrorWithCause("route", errors.New("no leg is being navigated"))
)

// Outcome records how the last offer left the lifecycle.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeRejected Outcome = "rejected"
	OutcomeTimedOut Outcome = "timed_out"
	OutcomeSettled  Outcome = "settled"
)

// Closure describes an offer that has just returned the lifecycle to Idle. It is
// the only place the transient fields survive after the reset.
type Closure struct {
	Offer       offer.Offer
	Outcome     Outcome
	Reason      RejectionReason
	Rating      *Rating
	PickupRoute *kernel.Route
	DropRoute   *kernel.Route
	OfferedAt   time.Time
	AcceptedAt  time.Time
	DeliveredAt time.Time
	ClosedAt    time.Time
}

// Lifecycle is the aggregate tracking one active order from offer through
// settlement. All mutation goes through the methods below, each of which either
// applies a legal transition completely or leaves the state untouched.
type Lifecycle struct {
	stage              Stage
	activeOrder        *offer.Offer
	countdownRemaining int
	rejectionReason    *RejectionReason
	rating             *Rating
	pickupRoute        *kernel.Route
	dropRoute          *kernel.Route
	offeredAt          time.Time
	acceptedAt         time.Time
	deliveredAt        time.Time
	lastOutcome        Outcome

	isConstructed bool
}

// New returns an Idle lifecycle.
func New() *Lifecycle {
	return &Lifecycle{stage: Idle, isConstructed: true}
}

func (l *Lifecycle) Validate() error {
	if l == nil || !l.isConstructed {
		return ErrLifecycleIsNotConstructed
	}
	return nil
}

func (l *Lifecycle) Stage() Stage {
	return l.stage
}

// ActiveOrder returns the offer being worked on, if any.
func (l *Lifecycle) ActiveOrder() (offer.Offer, bool) {
	if l.activeOrder == nil {
		return offer.Offer{}, false
	}
	return *l.activeOrder, true
}

func (l *Lifecycle) CountdownRemaining() int {
	return l.countdownRemaining
}

func (l *Lifecycle) RejectionReason() (RejectionReason, bool) {
	if l.rejectionReason == nil {
		return "", false
	}
	return *l.rejectionReason, true
}

func (l *Lifecycle) Rating() (Rating, bool) {
	if l.rating == nil {
		return Rating{}, false
	}
	return *l.rating, true
}

func (l *Lifecycle) PickupRoute() (kernel.Route, bool) {
	if l.pickupRoute == nil {
		return kernel.Route{}, false
	}
	return *l.pickupRoute, true
}

func (l *Lifecycle) DropRoute() (kernel.Route, bool) {
	if l.dropRoute == nil {
		return kernel.Route{}, false
	}
	return *l.dropRoute, true
}

func (l *Lifecycle) OfferedAt() time.Time { return l.offeredAt }
func (l *Lifecycle) AcceptedAt() time.Time { return l.acceptedAt }
func (l *Lifecycle) DeliveredAt() time.Time { return l.deliveredAt }
func (l *Lifecycle) LastOutcome() Outcome { return l.lastOutcome }

// Target is the point the partner is heading to during an en-route stage.
func (l *Lifecycle) Target() (kernel.GeoPoint, bool) {
	if l.activeOrder == nil {
		return kernel.GeoPoint{}, false
	}
	switch l.stage { //nolint:exhaustive // only en-route stages have a target
	case EnRouteToPickup:
		return l.activeOrder.Pickup(), true
	case EnRouteToDrop:
		return l.activeOrder.Drop(), true
	default:
		return kernel.GeoPoint{}, false
	}
}

// Offer presents a new offer and starts its countdown.
//
// Rules:
//   - the lifecycle must be Idle; otherwise ErrOfferAlreadyActive
//   - countdown must be positive
//
// Gating on presence is the caller's concern since it lives outside the aggregate.
func (l *Lifecycle) Offer(o offer.Offer, countdown int, now time.Time) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if countdown <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("countdown", fmt.Errorf("%d is not greater than 0", countdown))
	}
	if l.stage != Idle {
		return ErrOfferAlreadyActive
	}
	next, err := l.stage.Fire(TriggerOffer)
	if err != nil {
		return err
	}

	l.stage = next
	l.activeOrder = &o
	l.countdownRemaining = countdown
	l.rejectionReason = nil
	l.offeredAt = now
	return nil
}

// Tick consumes one second of the offer countdown and reports whether it has
// reached zero.
func (l *Lifecycle) Tick() (bool, error) {
	if l.stage != Offered {
		return false, ErrCountdownIsNotRunning
	}
	if l.countdownRemaining > 0 {
		l.countdownRemaining--
	}
	return l.countdownRemaining == 0, nil
}

// SelectRejectionReason records the reason the partner picked. It does not reject.
func (l *Lifecycle) SelectRejectionReason(reason RejectionReason) error {
	if l.stage != Offered {
		return ErrCountdownIsNotRunning
	}
	parsed, err := ParseRejectionReason(string(reason))
	if err != nil {
		return err
	}
	l.rejectionReason = &parsed
	return nil
}

// Reject commits a manual rejection. A reason must have been selected first.
func (l *Lifecycle) Reject(now time.Time) (Closure, error) {
	if !l.stage.CanFire(TriggerReject) {
		_, err := l.stage.Fire(TriggerReject)
		return Closure{}, err
	}
	if l.rejectionReason == nil {
		return Closure{}, ErrRejectionReasonRequired
	}
	return l.close(TriggerReject, OutcomeRejected, now)
}

// TimeOut rejects the offer once its countdown has run out. No reason is needed.
func (l *Lifecycle) TimeOut(now time.Time) (Closure, error) {
	if !l.stage.CanFire(TriggerTimeout) {
		_, err := l.stage.Fire(TriggerTimeout)
		return Closure{}, err
	}
	if l.countdownRemaining > 0 {
		return Closure{}, ErrCountdownIsNotExpired
	}
	return l.close(TriggerTimeout, OutcomeTimedOut, now)
}

// Accept takes the offer. The countdown and any half-selected reason are cleared.
func (l *Lifecycle) Accept(now time.Time) error {
	if err := l.fire(TriggerAccept); err != nil {
		return err
	}
	l.countdownRemaining = 0
	l.rejectionReason = nil
	l.acceptedAt = now
	return nil
}

func (l *Lifecycle) StartPickupLeg() error {
	return l.fire(TriggerStartPickupLeg)
}

// AttachRoute stores the polyline for the leg currently being navigated.
func (l *Lifecycle) AttachRoute(r kernel.Route) error {
	if len(r.Points) < 2 {
		return kernel.ErrRouteIsTooShort
	}
	switch l.stage { //nolint:exhaustive // routes belong to en-route stages only
	case EnRouteToPickup:
		l.pickupRoute = &r
	case EnRouteToDrop:
		l.dropRoute = &r
	default:
		return ErrRouteLegMismatch
	}
	return nil
}

func (l *Lifecycle) ArriveAtPickup() error {
	return l.fire(TriggerArrivePickup)
}

func (l *Lifecycle) ConfirmPickupReached() error {
	return l.fire(TriggerConfirmPickupReached)
}

// ConfirmOrderID closes the blocking order-id panel and starts the drop leg.
func (l *Lifecycle) ConfirmOrderID() error {
	return l.fire(TriggerConfirmOrderID)
}

func (l *Lifecycle) ArriveAtDrop() error {
	return l.fire(TriggerArriveDrop)
}

func (l *Lifecycle) ConfirmDropReached(now time.Time) error {
	if err := l.fire(TriggerConfirmDropReached); err != nil {
		return err
	}
	l.deliveredAt = now
	return nil
}

func (l *Lifecycle) ConfirmDelivered() error {
	return l.fire(TriggerConfirmDelivered)
}

// Dismiss handles a backdrop tap or swipe-down on the current panel.
//
// Returns:
//   - (nil, nil) in Delivered, which advances to Reviewed
//   - (closure, nil) in Settled, which closes the payment summary
//   - ErrPanelIsBlocking in OrderIDConfirmed; nothing changes
//   - ErrNothingToDismiss elsewhere
func (l *Lifecycle) Dismiss(now time.Time) (*Closure, error) {
	switch {
	case l.stage.IsPanelBlocking():
		return nil, ErrPanelIsBlocking
	case l.stage == Delivered:
		return nil, l.ConfirmDelivered()
	case l.stage == Settled:
		c, err := l.CloseSettlement(now)
		if err != nil {
			return nil, err
		}
		return &c, nil
	default:
		return nil, ErrNothingToDismiss
	}
}

// SubmitRating moves a reviewed delivery to the payment summary.
func (l *Lifecycle) SubmitRating(r Rating) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := l.fire(TriggerSubmitRating); err != nil {
		return err
	}
	l.rating = &r
	return nil
}

// CloseSettlement dismisses the payment summary and clears every transient field.
func (l *Lifecycle) CloseSettlement(now time.Time) (Closure, error) {
	if !l.stage.CanFire(TriggerCloseSettlement) {
		_, err := l.stage.Fire(TriggerCloseSettlement)
		return Closure{}, err
	}
	return l.close(TriggerCloseSettlement, OutcomeSettled, now)
}

func (l *Lifecycle) fire(t Trigger) error {
	next, err := l.stage.Fire(t)
	if err != nil {
		return err
	}
	l.stage = next
	return nil
}

func (l *Lifecycle) close(t Trigger, outcome Outcome, now time.Time) (Closure, error) {
	next, err := l.stage.Fire(t)
	if err != nil {
		return Closure{}, err
	}

	c := Closure{
		Outcome:     outcome,
		Rating:      l.rating,
		PickupRoute: l.pickupRoute,
		DropRoute:   l.dropRoute,
		OfferedAt:   l.offeredAt,
		AcceptedAt:  l.acceptedAt,
		DeliveredAt: l.deliveredAt,
		ClosedAt:    now,
	}
	if l.activeOrder != nil {
		c.Offer = *l.activeOrder
	}
	if outcome == OutcomeRejected && l.rejectionReason != nil {
		c.Reason = *l.rejectionReason
	}

	*l = Lifecycle{stage: next, lastOutcome: outcome, isConstructed: true}
	return c, nil
}
