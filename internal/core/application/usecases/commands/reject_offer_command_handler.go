package commands

import (
	"context"
)

type RejectOfferCommandHandler struct {
	rejecter OfferRejecter
}

func NewRejectOfferCommandHandler(rejecter OfferRejecter) RejectOfferCommandHandler {
	return RejectOfferCommandHandler{rejecter: rejecter}
}

func (h RejectOfferCommandHandler) Handle(ctx context.Context, cmd RejectOfferCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	reason := cmd.reason
	return h.rejecter.Reject(ctx, &reason)
}
