package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"partner/internal/core/application/usecases/queries"
	"partner/internal/core/domain/model/delivery"
	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/wallet"
	"partner/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWalletClient struct{ mock.Mock }

func (m *MockWalletClient) Wallet(ctx context.Context) (wallet.State, error) {
	args := m.Called(ctx)
	return args.Get(0).(wallet.State), args.Error(1)
}

type MockDeliveryHistory struct{ mock.Mock }

func (m *MockDeliveryHistory) ListDeliveredBetween(ctx context.Context, from, to time.Time) ([]*delivery.Record, error) {
	args := m.Called(ctx, from, to)
	records, _ := args.Get(0).([]*delivery.Record)
	return records, args.Error(1)
}

// Wednesday afternoon.
var now = time.Date(2025, 6, 11, 15, 0, 0, 0, time.Local)

func at(t time.Time) *time.Time { return &t }

func record(t *testing.T, deliveredAt time.Time, active time.Duration, distance float64) *delivery.Record {
	t.Helper()
	r, err := delivery.NewRecord(kernel.NewUUID(), "ORD-1", 40, distance, delivery.Timeline{
		AcceptedAt:  deliveredAt.Add(-active),
		DeliveredAt: deliveredAt,
		SettledAt:   deliveredAt,
	}, 5, "")
	require.NoError(t, err)
	return r
}

func TestNewGetEarningsSummaryQuery(t *testing.T) {
	q, err := queries.NewGetEarningsSummaryQuery("month")
	require.NoError(t, err)
	assert.Equal(t, wallet.Month, q.Period())

	_, err = queries.NewGetEarningsSummaryQuery("decade")
	require.Error(t, err)
}

func TestGetEarningsSummaryQueryHandler_Handle(t *testing.T) {
	ctx := t.Context()
	state := wallet.State{
		TotalBalance: 900,
		CashInHand:   120,
		TotalEarned:  2400,
		Transactions: []wallet.Transaction{
			{Type: wallet.Payment, Status: wallet.Completed, Amount: 50, Date: at(now.Add(-2 * time.Hour))},
			{Type: wallet.Payment, Status: wallet.Pending, Amount: 30, Date: at(now.Add(-time.Hour))},
			{Type: wallet.Bonus, Status: wallet.Completed, Amount: 20, CreatedAt: at(now.Add(-time.Minute))},
			{Type: wallet.Withdrawal, Status: wallet.Completed, Amount: 300, Date: at(now.Add(-time.Hour))},
			{Type: wallet.Payment, Status: wallet.Completed, Amount: 99, Date: at(now.AddDate(0, 0, -1))},
		},
	}
	client := new(MockWalletClient)
	client.On("Wallet", ctx).Return(state, nil).Once()

	today := wallet.Today.Start(now)
	history := new(MockDeliveryHistory)
	history.On("ListDeliveredBetween", ctx, today, now).Return([]*delivery.Record{
		record(t, now.Add(-3*time.Hour), 30*time.Minute, 2500),
		record(t, now.Add(-time.Hour), 45*time.Minute, 4100),
	}, nil).Once()

	q, err := queries.NewGetEarningsSummaryQuery("today")
	require.NoError(t, err)
	h := queries.NewGetEarningsSummaryQueryHandler(client, history, logging.Discard()).
		WithClock(func() time.Time { return now })

	got, err := h.Handle(ctx, q)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, got.Earnings, 1e-9)
	assert.Equal(t, 2, got.Trips)
	assert.InDelta(t, 1.25, got.ActiveHours, 1e-9)
	assert.InDelta(t, 6600.0, got.DistanceMeters, 1e-9)
	assert.InDelta(t, 900.0, got.TotalBalance, 1e-9)
	assert.Len(t, got.Transactions, 5)
	assert.False(t, got.WalletUnavailable)
	client.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestGetEarningsSummaryQueryHandler_Handle_WalletOutage(t *testing.T) {
	ctx := t.Context()
	client := new(MockWalletClient)
	client.On("Wallet", ctx).Return(wallet.State{TotalBalance: 12}, errors.New("502 bad gateway"))

	q, _ := queries.NewGetEarningsSummaryQuery("week")
	h := queries.NewGetEarningsSummaryQueryHandler(client, nil, logging.Discard()).
		WithClock(func() time.Time { return now })

	got, err := h.Handle(ctx, q)
	require.NoError(t, err)
	assert.True(t, got.WalletUnavailable)
	assert.Zero(t, got.Earnings)
	assert.Zero(t, got.TotalBalance)
	assert.NotNil(t, got.Transactions)
	assert.Empty(t, got.Transactions)
}

func TestGetEarningsSummaryQueryHandler_Handle_HistoryErrorKeepsWallet(t *testing.T) {
	ctx := t.Context()
	client := new(MockWalletClient)
	client.On("Wallet", ctx).Return(wallet.State{
		TotalBalance: 120,
		Transactions: []wallet.Transaction{
			{Type: wallet.Payment, Status: wallet.Completed, Amount: 50, Date: at(now.Add(-time.Hour))},
		},
	}, nil)
	history := new(MockDeliveryHistory)
	history.On("ListDeliveredBetween", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	q, _ := queries.NewGetEarningsSummaryQuery("today")
	h := queries.NewGetEarningsSummaryQueryHandler(client, history, logging.Discard()).
		WithClock(func() time.Time { return now })

	got, err := h.Handle(ctx, q)
	require.NoError(t, err)
	assert.True(t, got.HistoryUnavailable)
	assert.False(t, got.WalletUnavailable)
	assert.Zero(t, got.Trips)
	assert.Zero(t, got.ActiveHours)
	assert.InDelta(t, 120.0, got.TotalBalance, 1e-9)
	assert.InDelta(t, 50.0, got.Earnings, 1e-9)
	require.Len(t, got.Transactions, 1)
}

func TestGetEarningsSummaryQueryHandler_Handle_ValidationError(t *testing.T) {
	client := new(MockWalletClient)
	h := queries.NewGetEarningsSummaryQueryHandler(client, nil, logging.Discard())

	_, err := h.Handle(t.Context(), queries.GetEarningsSummaryQuery{})
	require.ErrorIs(t, err, queries.ErrGetEarningsSummaryQueryIsNotConstructed)
	client.AssertNotCalled(t, "Wallet", mock.Anything)
}
