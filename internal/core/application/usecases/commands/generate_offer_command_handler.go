package commands

import (
	"context"
	"errors"
	"fmt"

	"partner/internal/core/ports"
)

var (
	ErrPartnerIsOffline = errors.New("offers are only generated while online")
	ErrOrderIsActive    = errors.New("an order is already active")
)

// GenerateOfferCommandHandler pulls the next offer and presents it.
type GenerateOfferCommandHandler struct {
	source    ports.OfferSource
	presenter OfferPresenter
	presence  PresenceReader
}

func NewGenerateOfferCommandHandler(
	source ports.OfferSource,
	presenter OfferPresenter,
	presence PresenceReader,
) GenerateOfferCommandHandler {
	return GenerateOfferCommandHandler{source: source, presenter: presenter, presence: presence}
}

// Handle returns ErrPartnerIsOffline or ErrOrderIsActive when no offer may be shown
// right now, and nil when the source simply has nothing to offer.
func (h GenerateOfferCommandHandler) Handle(ctx context.Context, cmd GenerateOfferCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if !h.presence.IsOnline() {
		return ErrPartnerIsOffline
	}
	if !h.presenter.IsIdle() {
		return ErrOrderIsActive
	}

	o, ok, err := h.source.NextOffer(ctx, cmd.near)
	if err != nil {
		return fmt.Errorf("fetch offer: %w", err)
	}
	if !ok {
		return nil
	}
	return h.presenter.PresentOffer(ctx, o)
}
