package lifecycle

import (
	"fmt"
	"slices"
	"strings"

	"partner/internal/pkg/errs"
)

// RejectionReason is one entry of the fixed list a partner must pick from before a
// manual reject is allowed to commit.
type RejectionReason string

const (
	ReasonTooFar            RejectionReason = "too_far"
	ReasonLowEarnings       RejectionReason = "low_earnings"
	ReasonVehicleIssue      RejectionReason = "vehicle_issue"
	ReasonRestaurantDelay   RejectionReason = "restaurant_delay"
	ReasonUnsafeArea        RejectionReason = "unsafe_area"
	ReasonPersonalEmergency RejectionReason = "personal_emergency"
	ReasonEndingShift       RejectionReason = "ending_shift"
)

// RejectionReasons lists the accepted reasons in display order.
func RejectionReasons() []RejectionReason {
	return []RejectionReason{
		ReasonTooFar,
		ReasonLowEarnings,
		ReasonVehicleIssue,
		ReasonRestaurantDelay,
		ReasonUnsafeArea,
		ReasonPersonalEmergency,
		ReasonEndingShift,
	}
}

// ParseRejectionReason accepts only members of RejectionReasons.
func ParseRejectionReason(s string) (RejectionReason, error) {
	r := RejectionReason(strings.TrimSpace(strings.ToLower(s)))
	if !slices.Contains(RejectionReasons(), r) {
		return "", errs.NewValueIsInvalidErrorWithCause("reason", fmt.Errorf("%q is not in the rejection reason list", s))
	}
	return r, nil
}

func (r RejectionReason) String() string {
	return string(r)
}
