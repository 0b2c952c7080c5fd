package wallet

import (
	"encoding/json"
	"strings"
	"time"
)

// dateLayouts are the timestamp formats accepted from the backend, most precise first.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

type TransactionType string

const (
	Payment    TransactionType = "payment"
	Withdrawal TransactionType = "withdrawal"
	Bonus      TransactionType = "bonus"
)

type TransactionStatus string

const (
	Pending   TransactionStatus = "Pending"
	Completed TransactionStatus = "Completed"
	Failed    TransactionStatus = "Failed"
)

// Transaction is one wallet log entry as the backend reports it. Either date may be
// missing on older records.
type Transaction struct {
	ID          string            `json:"id,omitempty"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Amount      float64           `json:"amount"`
	Date        *time.Time        `json:"date,omitempty"`
	CreatedAt   *time.Time        `json:"createdAt,omitempty"`
	Description string            `json:"description,omitempty"`
}

// UnmarshalJSON reads date and createdAt leniently: an empty, null or unparseable
// value leaves that date unset instead of failing the whole wallet.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type fields Transaction
	var raw struct {
		fields
		Date      json.RawMessage `json:"date"`
		CreatedAt json.RawMessage `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Transaction(raw.fields)
	t.Date = parseDate(raw.Date)
	t.CreatedAt = parseDate(raw.CreatedAt)
	return nil
}

func parseDate(raw json.RawMessage) *time.Time {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

// Timestamp is the date the transaction is attributed to: Date, then CreatedAt.
// ok is false when neither is set.
func (t Transaction) Timestamp() (ts time.Time, ok bool) {
	switch {
	case t.Date != nil && !t.Date.IsZero():
		return *t.Date, true
	case t.CreatedAt != nil && !t.CreatedAt.IsZero():
		return *t.CreatedAt, true
	default:
		return time.Time{}, false
	}
}

// IsEarning reports whether the transaction counts towards earnings.
func (t Transaction) IsEarning() bool {
	return (t.Type == Payment || t.Type == Bonus) && t.Status == Completed
}

// State is the client's read-only cached copy of the wallet. It is replaced
// wholesale on every fetch and never mutated locally.
type State struct {
	TotalBalance   float64       `json:"totalBalance"`
	CashInHand     float64       `json:"cashInHand"`
	TotalWithdrawn float64       `json:"totalWithdrawn"`
	TotalEarned    float64       `json:"totalEarned"`
	Transactions   []Transaction `json:"transactions"`
}

// EmptyState is substituted whenever the backend cannot be reached, so figures are
// zero rather than stale.
func EmptyState() State {
	return State{Transactions: []Transaction{}}
}
