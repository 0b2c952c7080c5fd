package commands

import (
	"context"

	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/core/domain/model/offer"
)

// Runtime collaborators of the lifecycle commands. The engine implements the first
// three and the presence sync implements PresenceToggler.
type (
	OfferPresenter interface {
		IsIdle() bool
		PresentOffer(ctx context.Context, o offer.Offer) error
	}

	OfferRejecter interface {
		Reject(ctx context.Context, reason *lifecycle.RejectionReason) error
	}

	RatingSubmitter interface {
		SubmitRating(ctx context.Context, stars int, review string) error
	}

	PresenceReader interface {
		IsOnline() bool
	}

	PresenceToggler interface {
		Toggle(ctx context.Context) (bool, error)
	}
)
