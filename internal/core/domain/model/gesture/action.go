package gesture

import (
	"fmt"

	"partner/internal/pkg/errs"
)

// Action tags a swipe-to-confirm control with the transition it commits.
type Action int

const (
	UnknownAction Action = iota
	AcceptOrder
	ReachedPickup
	ConfirmOrderID
	ReachedDrop
	OrderDelivered
)

func getActionStrings() map[Action]string {
	return map[Action]string{
		AcceptOrder:    "accept-order",
		ReachedPickup:  "reached-pickup",
		ConfirmOrderID: "confirm-order-id",
		ReachedDrop:    "reached-drop",
		OrderDelivered: "order-delivered",
	}
}

// Actions lists every bindable action.
func Actions() []Action {
	return []Action{AcceptOrder, ReachedPickup, ConfirmOrderID, ReachedDrop, OrderDelivered}
}

func ParseAction(s string) (Action, error) {
	for a, name := range getActionStrings() {
		if name == s {
			return a, nil
		}
	}
	return UnknownAction, errs.NewValueIsInvalidErrorWithCause("action", fmt.Errorf("%q is not a swipe action", s))
}

func (a Action) Validate() error {
	if _, ok := getActionStrings()[a]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("action", fmt.Errorf("%d is not a swipe action", a))
	}
	return nil
}

func (a Action) String() string {
	if s, ok := getActionStrings()[a]; ok {
		return s
	}
	return "unknown"
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
