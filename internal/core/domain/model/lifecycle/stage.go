package lifecycle

import (
	"fmt"

	"partner/internal/pkg/errs"
)

// Stage is the position of the partner's active order in the delivery lifecycle.
//
// Transitions:
//
//	Idle ──offer──> Offered ──accept──> Accepted ──> EnRouteToPickup ──arrive──> PickupReached
//	  ^               │ reject / timeout                                              │ swipe
//	  └───────────────┘                                                               v
//	  ^                                                                      OrderIDConfirmed
//	  │                                                                               │ swipe
//	  │                                                                               v
//	Settled <──rating── Reviewed <──swipe/dismiss── Delivered <──swipe── DropReached <── EnRouteToDrop
//	  │ close
//	  └──> Idle
type Stage int

const (
	// Unknown catches uninitialized values.
	Unknown Stage = iota
	Idle
	Offered
	Accepted
	EnRouteToPickup
	PickupReached
	// OrderIDConfirmed shows the blocking order-id panel; only its own swipe leaves it.
	OrderIDConfirmed
	EnRouteToDrop
	DropReached
	Delivered
	Reviewed
	Settled
)

// Trigger names an input that moves the lifecycle between stages.
type Trigger int

const (
	TriggerOffer Trigger = iota + 1
	TriggerReject
	TriggerTimeout
	TriggerAccept
	TriggerStartPickupLeg
	TriggerArrivePickup
	TriggerConfirmPickupReached
	TriggerConfirmOrderID
	TriggerArriveDrop
	TriggerConfirmDropReached
	TriggerConfirmDelivered
	TriggerSubmitRating
	TriggerCloseSettlement
)

func getStageStrings() map[Stage]string {
	return map[Stage]string{
		Unknown:          "Unknown",
		Idle:             "Idle",
		Offered:          "Offered",
		Accepted:         "Accepted",
		EnRouteToPickup:  "EnRouteToPickup",
		PickupReached:    "PickupReached",
		OrderIDConfirmed: "OrderIdConfirmed",
		EnRouteToDrop:    "EnRouteToDrop",
		DropReached:      "DropReached",
		Delivered:        "Delivered",
		Reviewed:         "Reviewed",
		Settled:          "Settled",
	}
}

func getTriggerStrings() map[Trigger]string {
	return map[Trigger]string{
		TriggerOffer:                "offer",
		TriggerReject:               "reject",
		TriggerTimeout:              "timeout",
		TriggerAccept:               "accept",
		TriggerStartPickupLeg:       "start_pickup_leg",
		TriggerArrivePickup:         "arrive_pickup",
		TriggerConfirmPickupReached: "confirm_pickup_reached",
		TriggerConfirmOrderID:       "confirm_order_id",
		TriggerArriveDrop:           "arrive_drop",
		TriggerConfirmDropReached:   "confirm_drop_reached",
		TriggerConfirmDelivered:     "confirm_delivered",
		TriggerSubmitRating:         "submit_rating",
		TriggerCloseSettlement:      "close_settlement",
	}
}

// transitions is the complete table; anything absent is an illegal transition.
func transitions() map[Stage]map[Trigger]Stage {
	return map[Stage]map[Trigger]Stage{
		Idle:             {TriggerOffer: Offered},
		Offered:          {TriggerReject: Idle, TriggerTimeout: Idle, TriggerAccept: Accepted},
		Accepted:         {TriggerStartPickupLeg: EnRouteToPickup},
		EnRouteToPickup:  {TriggerArrivePickup: PickupReached},
		PickupReached:    {TriggerConfirmPickupReached: OrderIDConfirmed},
		OrderIDConfirmed: {TriggerConfirmOrderID: EnRouteToDrop},
		EnRouteToDrop:    {TriggerArriveDrop: DropReached},
		DropReached:      {TriggerConfirmDropReached: Delivered},
		Delivered:        {TriggerConfirmDelivered: Reviewed},
		Reviewed:         {TriggerSubmitRating: Settled},
		Settled:          {TriggerCloseSettlement: Idle},
	}
}

// ParseStage is the inverse of Stage.String for valid stages.
func ParseStage(s string) (Stage, error) {
	for stage, name := range getStageStrings() {
		if name == s && stage != Unknown {
			return stage, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("stage", fmt.Errorf("%q is not a valid stage", s))
}

// Validate rejects Unknown and out-of-range values.
func (s Stage) Validate() error {
	if _, ok := transitions()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("stage is invalid", fmt.Errorf("%d is not a valid stage", s))
	}
	return nil
}

func (s Stage) String() string {
	if str, ok := getStageStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

func (t Trigger) String() string {
	if str, ok := getTriggerStrings()[t]; ok {
		return str
	}
	return "unknown"
}

// Fire returns the stage reached by applying trigger t to s.
//
// Returns:
//   - (next, nil) when the transition table allows it
//   - (Unknown, error) otherwise; the caller keeps its current stage
func (s Stage) Fire(t Trigger) (Stage, error) {
	next, ok := transitions()[s][t]
	if !ok {
		return Unknown, errs.NewValueIsInvalidErrorWithCause(
			"stage transition is invalid",
			fmt.Errorf("%s cannot handle %s", s, t),
		)
	}
	return next, nil
}

// CanFire reports whether Fire would succeed without performing it.
func (s Stage) CanFire(t Trigger) bool {
	_, ok := transitions()[s][t]
	return ok
}

// HasActiveOrder is true for every stage between an offer and its closure.
func (s Stage) HasActiveOrder() bool {
	return s != Idle && s != Unknown
}

// IsEnRoute is true while a directions view with a dwell is on screen.
func (s Stage) IsEnRoute() bool {
	return s == EnRouteToPickup || s == EnRouteToDrop
}

// IsPanelBlocking reports whether the panel shown in this stage ignores backdrop
// taps and swipe-down dismissal.
func (s Stage) IsPanelBlocking() bool {
	return s == OrderIDConfirmed
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	parsed, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
