package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/offer"
	"partner/internal/pkg/errs"
)

// SnapshotVersion is bumped whenever the persisted layout changes incompatibly.
const SnapshotVersion = 1

// Snapshot is the persisted form of an active lifecycle. It is written after every
// transition and restored verbatim on a cold start.
type Snapshot struct {
	Version            int              `json:"version"`
	Stage              Stage            `json:"stage"`
	Offer              *offer.Offer     `json:"offer,omitempty"`
	CountdownRemaining int              `json:"countdownRemaining"`
	RejectionReason    *RejectionReason `json:"rejectionReason,omitempty"`
	Stars              int              `json:"stars,omitempty"`
	Review             string           `json:"review,omitempty"`
	PickupRoute        *kernel.Route    `json:"pickupRoute,omitempty"`
	DropRoute          *kernel.Route    `json:"dropRoute,omitempty"`
	OfferedAt          time.Time        `json:"offeredAt,omitzero"`
	AcceptedAt         time.Time        `json:"acceptedAt,omitzero"`
	DeliveredAt        time.Time        `json:"deliveredAt,omitzero"`
	LastOutcome        Outcome          `json:"lastOutcome,omitempty"`
}

func (l *Lifecycle) Snapshot() Snapshot {
	s := Snapshot{
		Version:            SnapshotVersion,
		Stage:              l.stage,
		Offer:              l.activeOrder,
		CountdownRemaining: l.countdownRemaining,
		RejectionReason:    l.rejectionReason,
		PickupRoute:        l.pickupRoute,
		DropRoute:          l.dropRoute,
		OfferedAt:          l.offeredAt,
		AcceptedAt:         l.acceptedAt,
		DeliveredAt:        l.deliveredAt,
		LastOutcome:        l.lastOutcome,
	}
	if l.rating != nil {
		s.Stars = l.rating.Stars()
		s.Review = l.rating.Review()
	}
	return s
}

// Restore rebuilds a lifecycle from a snapshot, checking that the stored fields are
// consistent with the stored stage.
func Restore(s Snapshot) (*Lifecycle, error) {
	if s.Version != SnapshotVersion {
		return nil, errs.NewVersionIsInvalidError(
			"snapshot version",
			fmt.Errorf("got %d, want %d", s.Version, SnapshotVersion),
		)
	}
	if err := s.Stage.Validate(); err != nil {
		return nil, err
	}

	l := &Lifecycle{
		stage:              s.Stage,
		countdownRemaining: s.CountdownRemaining,
		pickupRoute:        s.PickupRoute,
		dropRoute:          s.DropRoute,
		offeredAt:          s.OfferedAt,
		acceptedAt:         s.AcceptedAt,
		deliveredAt:        s.DeliveredAt,
		lastOutcome:        s.LastOutcome,
		isConstructed:      true,
	}

	if s.Stage.HasActiveOrder() {
		if s.Offer == nil {
			return nil, errs.NewValueIsRequiredErrorWithCause("offer", fmt.Errorf("stage %s needs an active order", s.Stage))
		}
		if err := s.Offer.Validate(); err != nil {
			return nil, err
		}
		o := *s.Offer
		l.activeOrder = &o
	} else if s.Offer != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("offer", errors.New("an idle lifecycle has no active order"))
	}

	if s.Stage == Offered {
		if s.CountdownRemaining < 0 {
			return nil, errs.NewValueIsOutOfRangeError("countdown", s.CountdownRemaining, 0, DefaultCountdown)
		}
		if s.RejectionReason != nil {
			reason, err := ParseRejectionReason(string(*s.RejectionReason))
			if err != nil {
				return nil, err
			}
			l.rejectionReason = &reason
		}
	} else {
		l.countdownRemaining = 0
	}

	if s.Stage == Settled {
		r, err := NewRating(s.Stars, s.Review)
		if err != nil {
			return nil, err
		}
		l.rating = &r
	}

	return l, nil
}
