package jobs

import (
	"context"
	"log/slog"

	"partner/internal/core/application/usecases/queries"
	"partner/internal/core/ports"
)

type EarningsReader interface {
	Handle(ctx context.Context, query queries.GetEarningsSummaryQuery) (queries.GetEarningsSummaryQueryResponse, error)
}

// WalletRefreshJob re-reads today's earnings and broadcasts them, so every surface
// shows the same figures without polling on its own.
type WalletRefreshJob struct {
	cronJob
	earnings EarningsReader
	events   ports.EventPublisher
}

func NewWalletRefreshJob(spec string, earnings EarningsReader, events ports.EventPublisher, logger *slog.Logger) *WalletRefreshJob {
	return &WalletRefreshJob{
		cronJob:  newCronJob("wallet_refresh_job", spec, logger),
		earnings: earnings,
		events:   events,
	}
}

func (j *WalletRefreshJob) Start() error {
	return j.start(j.Tick)
}

func (j *WalletRefreshJob) Tick(ctx context.Context) {
	query, err := queries.NewGetEarningsSummaryQuery("today")
	if err != nil {
		j.logger.ErrorContext(ctx, "Wallet refresh query is invalid", "error", err)
		return
	}

	summary, err := j.earnings.Handle(ctx, query)
	if err != nil {
		j.logger.ErrorContext(ctx, "Wallet refresh failed", "error", err)
		return
	}
	j.events.Publish(ports.TopicWalletUpdated, summary)
}
