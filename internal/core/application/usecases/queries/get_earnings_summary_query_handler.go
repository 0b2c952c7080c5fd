package queries

import (
	"context"
	"log/slog"
	"time"

	"partner/internal/core/domain/model/delivery"
	"partner/internal/core/domain/model/wallet"
	"partner/internal/core/domain/services"
	"partner/internal/core/ports"
	"partner/internal/observability"
)

// DeliveryHistory is the read side of the delivery repository.
type DeliveryHistory interface {
	ListDeliveredBetween(ctx context.Context, from, to time.Time) ([]*delivery.Record, error)
}

// GetEarningsSummaryQueryHandler combines the wallet log with the local delivery
// history. history may be nil when no database is configured; trips are then zero.
type GetEarningsSummaryQueryHandler struct {
	wallet     ports.WalletClient
	history    DeliveryHistory
	aggregator services.EarningsAggregator
	logger     *slog.Logger
	now        func() time.Time
}

func NewGetEarningsSummaryQueryHandler(
	walletClient ports.WalletClient,
	history DeliveryHistory,
	logger *slog.Logger,
) GetEarningsSummaryQueryHandler {
	return GetEarningsSummaryQueryHandler{
		wallet:     walletClient,
		history:    history,
		aggregator: services.NewEarningsAggregator(),
		logger:     logger.With("component", "earnings"),
		now:        time.Now,
	}
}

// WithClock returns a copy of the handler reading time from now.
func (h GetEarningsSummaryQueryHandler) WithClock(now func() time.Time) GetEarningsSummaryQueryHandler {
	h.now = now
	return h
}

// Handle never fails on a backend outage. A wallet outage yields the empty wallet and
// a history outage zero trips; either way the response is flagged.
func (h GetEarningsSummaryQueryHandler) Handle(
	ctx context.Context,
	query GetEarningsSummaryQuery,
) (GetEarningsSummaryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetEarningsSummaryQueryResponse{}, err
	}
	now := h.now()

	state, err := h.wallet.Wallet(ctx)
	unavailable := err != nil
	if unavailable {
		h.logger.Warn("wallet unavailable, showing empty wallet", "error", err)
		observability.WalletFallbacksTotal.Inc()
		state = wallet.EmptyState()
	}

	var trips services.TripSummary
	historyUnavailable := false
	if h.history != nil {
		records, histErr := h.history.ListDeliveredBetween(ctx, query.period.Start(now), now)
		if histErr != nil {
			h.logger.Warn("delivery history unavailable, showing zero trips", "error", histErr)
			historyUnavailable = true
		} else {
			trips = h.aggregator.Trips(records, query.period, now)
		}
	}

	txs := state.Transactions
	if txs == nil {
		txs = []wallet.Transaction{}
	}
	return GetEarningsSummaryQueryResponse{
		Period:             query.period,
		Earnings:           h.aggregator.Earnings(state, query.period, now),
		Trips:              trips.Trips,
		ActiveHours:        trips.ActiveTime.Hours(),
		DistanceMeters:     trips.Distance,
		TotalBalance:       state.TotalBalance,
		CashInHand:         state.CashInHand,
		TotalWithdrawn:     state.TotalWithdrawn,
		TotalEarned:        state.TotalEarned,
		Transactions:       txs,
		WalletUnavailable:  unavailable,
		HistoryUnavailable: historyUnavailable,
	}, nil
}
