package jobs

import (
	"context"
	"errors"
	"log/slog"

	"partner/internal/core/application/usecases/commands"
	"partner/internal/core/domain/model/kernel"
)

type OfferGenerator interface {
	Handle(ctx context.Context, cmd commands.GenerateOfferCommand) error
}

type LocationReader interface {
	Current() kernel.LocationSample
}

// OfferPollJob asks for a new offer near the partner's current position.
type OfferPollJob struct {
	cronJob
	handler  OfferGenerator
	location LocationReader
}

func NewOfferPollJob(spec string, handler OfferGenerator, location LocationReader, logger *slog.Logger) *OfferPollJob {
	return &OfferPollJob{
		cronJob:  newCronJob("offer_poll_job", spec, logger),
		handler:  handler,
		location: location,
	}
}

func (j *OfferPollJob) Start() error {
	return j.start(j.Tick)
}

func (j *OfferPollJob) Tick(ctx context.Context) {
	cmd, err := commands.NewGenerateOfferCommand(j.location.Current().Point)
	if err != nil {
		j.logger.ErrorContext(ctx, "Offer poll has no valid position", "error", err)
		return
	}

	if err = j.handler.Handle(ctx, cmd); err != nil {
		if !errors.Is(err, commands.ErrPartnerIsOffline) && !errors.Is(err, commands.ErrOrderIsActive) {
			j.logger.ErrorContext(ctx, "Offer poll failed", "error", err)
		}
	}
}
