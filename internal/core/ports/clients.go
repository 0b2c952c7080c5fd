package ports

import (
	"context"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/offer"
	"partner/internal/core/domain/model/wallet"
)

// RouteProvider queries a driving-directions service.
type RouteProvider interface {
	Route(ctx context.Context, from, to kernel.GeoPoint) (kernel.Route, error)
}

// WalletClient reads the partner's wallet from the backend.
type WalletClient interface {
	Wallet(ctx context.Context) (wallet.State, error)
}

// OfferSource yields the next order offer for a partner near a point. ok is false
// when there is nothing to offer right now.
type OfferSource interface {
	NextOffer(ctx context.Context, near kernel.GeoPoint) (o offer.Offer, ok bool, err error)
}

// LocationPublisher forwards tracked samples upstream.
type LocationPublisher interface {
	Publish(ctx context.Context, sample kernel.LocationSample) error
}

// AlertPlayer plays the new-offer clip once. Play returns when the clip ends or
// ctx is cancelled, whichever is first.
type AlertPlayer interface {
	Play(ctx context.Context) error
}
