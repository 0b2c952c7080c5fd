package commands

import (
	"errors"

	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/pkg/guard"
)

var ErrRejectOfferCommandIsNotConstructed = errors.New(
	"RejectOfferCommand must be created via NewRejectOfferCommand constructor",
)

// RejectOfferCommand declines the open offer for one of the fixed reasons.
type RejectOfferCommand struct { //nolint:recvcheck //using for validation
	reason lifecycle.RejectionReason

	guard guard.ConstructorGuard
}

func NewRejectOfferCommand(reason string) (RejectOfferCommand, error) {
	r, err := lifecycle.ParseRejectionReason(reason)
	if err != nil {
		return RejectOfferCommand{}, err
	}
	return RejectOfferCommand{reason: r, guard: guard.NewConstructorGuard()}, nil
}

func (c RejectOfferCommand) Validate() error {
	return c.guard.Validate(ErrRejectOfferCommandIsNotConstructed)
}

func (c RejectOfferCommand) Reason() lifecycle.RejectionReason {
	return c.reason
}
