package commands

import (
	"errors"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/pkg/guard"
)

var ErrGenerateOfferCommandIsNotConstructed = errors.New(
	"GenerateOfferCommand must be created via NewGenerateOfferCommand constructor",
)

// GenerateOfferCommand asks the offer source for a job near the partner.
type GenerateOfferCommand struct { //nolint:recvcheck //using for validation
	near kernel.GeoPoint

	guard guard.ConstructorGuard
}

func NewGenerateOfferCommand(near kernel.GeoPoint) (GenerateOfferCommand, error) {
	if err := near.Validate(); err != nil {
		return GenerateOfferCommand{}, err
	}
	return GenerateOfferCommand{near: near, guard: guard.NewConstructorGuard()}, nil
}

func (c GenerateOfferCommand) Validate() error {
	return c.guard.Validate(ErrGenerateOfferCommandIsNotConstructed)
}

func (c GenerateOfferCommand) Near() kernel.GeoPoint {
	return c.near
}
