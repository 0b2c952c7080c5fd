package commands

import (
	"context"

	"partner/internal/core/domain/model/delivery"
)

// RecordDeliveryCommandHandler writes settled deliveries to the history.
type RecordDeliveryCommandHandler struct {
	uowFactory DeliveryUoWFactory
}

func NewRecordDeliveryCommandHandler(uowFactory DeliveryUoWFactory) RecordDeliveryCommandHandler {
	return RecordDeliveryCommandHandler{uowFactory: uowFactory}
}

// Handle persists the delivery in a single transaction.
func (h RecordDeliveryCommandHandler) Handle(ctx context.Context, cmd RecordDeliveryCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	record, err := delivery.NewRecord(
		cmd.offerID,
		cmd.orderID,
		cmd.earnings,
		cmd.distance,
		cmd.timeline,
		cmd.stars,
		cmd.review,
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.DeliveryRepository().Add(ctx, record); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
