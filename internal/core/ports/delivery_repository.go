// Package ports defines the contracts between the partner core and the outside
// world: persistence, device sensors, backend clients and UI surfaces.
package ports

import (
	"context"
	"time"

	"partner/internal/core/domain/model/delivery"
	"partner/internal/core/domain/model/kernel"
)

// DeliveryRepository persists settled deliveries.
type DeliveryRepository interface {
	// Add stores a newly settled delivery. Records are never updated.
	Add(ctx context.Context, record *delivery.Record) error

	// Get retrieves a record by id.
	Get(ctx context.Context, id kernel.UUID) (*delivery.Record, error)

	// ListDeliveredBetween returns the records handed over within [from, to],
	// oldest first.
	ListDeliveredBetween(ctx context.Context, from, to time.Time) ([]*delivery.Record, error)
}
