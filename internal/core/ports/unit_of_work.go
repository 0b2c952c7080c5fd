package ports

import (
	"context"
)

// UnitOfWorkFactory hands out a fresh UnitOfWork per command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork scopes the delivery history writes of one command to a transaction.
// Commit and Rollback fail when nothing was begun.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// DeliveryRepository is bound to the open transaction, or to the connection
	// pool before Begin.
	DeliveryRepository() DeliveryRepository
}
