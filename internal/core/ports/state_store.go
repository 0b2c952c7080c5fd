package ports

import (
	"context"
)

// Canonical keys of persisted client state.
const (
	KeyPresence     = "partner:online"
	KeyLastLocation = "partner:last-location"
	KeyActiveOrder  = "partner:active-order"
)

// StateChange notifies that a key was written or deleted, possibly by another
// process sharing the store.
type StateChange struct {
	Key     string
	Value   []byte
	Deleted bool
}

// StateStore is the persisted key/value store shared by every component and every
// process of the partner client.
type StateStore interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Watch streams changes until ctx is done.
	Watch(ctx context.Context) (<-chan StateChange, error)
}
