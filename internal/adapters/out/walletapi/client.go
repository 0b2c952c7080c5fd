// Package walletapi reads the partner's wallet from the REST backend.
package walletapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"partner/internal/core/domain/model/wallet"
	"partner/internal/pkg/errs"
)

const (
	DefaultTimeout = 5 * time.Second
	walletPath     = "/api/v1/wallet"
	maxErrorBody   = 512
)

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wallet backend returned %d: %s", e.StatusCode, e.Body)
}

// Client implements ports.WalletClient.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient builds a client for baseURL. token is sent as a bearer token when set.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("baseURL")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: baseURL, token: token, client: &http.Client{Timeout: timeout}}, nil
}

func (c *Client) Wallet(ctx context.Context) (wallet.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+walletPath, nil)
	if err != nil {
		return wallet.State{}, fmt.Errorf("build wallet request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return wallet.State{}, fmt.Errorf("wallet request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return wallet.State{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var state wallet.State
	if err = json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return wallet.State{}, fmt.Errorf("decode wallet: %w", err)
	}
	if state.Transactions == nil {
		state.Transactions = []wallet.Transaction{}
	}
	return state, nil
}
