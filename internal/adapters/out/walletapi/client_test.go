package walletapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"partner/internal/adapters/out/walletapi"
	"partner/internal/core/domain/model/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := walletapi.NewClient("", "", time.Second)
	require.Error(t, err)
}

func TestClient_Wallet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/wallet", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"totalBalance": 120.5, "cashInHand": 20, "totalWithdrawn": 300, "totalEarned": 420.5,
			"transactions": [
				{"id": "t1", "type": "payment", "status": "Completed", "amount": 42, "date": "2025-03-01T10:00:00Z"},
				{"id": "t2", "type": "bonus", "status": "Pending", "amount": 10, "createdAt": "2025-03-01T11:00:00Z"},
				{"id": "t3", "type": "withdrawal", "status": "Failed", "amount": 5}
			]}`))
	}))
	defer srv.Close()

	c, err := walletapi.NewClient(srv.URL+"/", "secret", time.Second)
	require.NoError(t, err)

	state, err := c.Wallet(t.Context())
	require.NoError(t, err)

	assert.InDelta(t, 120.5, state.TotalBalance, 1e-9)
	assert.InDelta(t, 20.0, state.CashInHand, 1e-9)
	require.Len(t, state.Transactions, 3)
	assert.Equal(t, wallet.Payment, state.Transactions[0].Type)
	assert.Equal(t, wallet.Completed, state.Transactions[0].Status)

	ts, ok := state.Transactions[1].Timestamp()
	require.True(t, ok)
	assert.Equal(t, 11, ts.Hour())

	_, ok = state.Transactions[2].Timestamp()
	assert.False(t, ok)
}

func TestClient_Wallet_UnreadableDateKeepsTheRestOfTheWallet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"totalBalance": 120,
			"transactions": [
				{"id": "t1", "type": "payment", "status": "Completed", "amount": 40, "date": "", "createdAt": "2025-03-01T09:00:00Z"},
				{"id": "t2", "type": "payment", "status": "Completed", "amount": 30, "date": "yesterday"},
				{"id": "t3", "type": "bonus", "status": "Completed", "amount": 5, "date": null, "createdAt": 17},
				{"id": "t4", "type": "payment", "status": "Completed", "amount": 50, "date": "2025-03-01"}
			]}`))
	}))
	defer srv.Close()

	c, err := walletapi.NewClient(srv.URL, "", time.Second)
	require.NoError(t, err)

	state, err := c.Wallet(t.Context())
	require.NoError(t, err)

	assert.InDelta(t, 120.0, state.TotalBalance, 1e-9)
	require.Len(t, state.Transactions, 4)

	ts, ok := state.Transactions[0].Timestamp()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), ts)
	assert.Nil(t, state.Transactions[0].Date)

	_, ok = state.Transactions[1].Timestamp()
	assert.False(t, ok)
	_, ok = state.Transactions[2].Timestamp()
	assert.False(t, ok)

	ts, ok = state.Transactions[3].Timestamp()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), ts)
	assert.InDelta(t, 50.0, state.Transactions[3].Amount, 1e-9)
}

func TestClient_Wallet_NullTransactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"totalBalance": 0, "transactions": null}`))
	}))
	defer srv.Close()

	c, err := walletapi.NewClient(srv.URL, "", time.Second)
	require.NoError(t, err)

	state, err := c.Wallet(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, state.Transactions)
	assert.Empty(t, state.Transactions)
}

func TestClient_Wallet_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := walletapi.NewClient(srv.URL, "", time.Second)
	require.NoError(t, err)

	_, err = c.Wallet(t.Context())
	var statusErr *walletapi.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "maintenance", statusErr.Body)
}

func TestClient_Wallet_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"totalBalance": "lots"`))
	}))
	defer srv.Close()

	c, err := walletapi.NewClient(srv.URL, "", time.Second)
	require.NoError(t, err)

	_, err = c.Wallet(t.Context())
	require.ErrorContains(t, err, "decode wallet")
}
