package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Implementations persist the aggregate together with its children and flush
// the uncommitted journey and action log rows in the same transaction as the
// aggregate row itself.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Save persists changes to an existing order aggregate using optimistic
	// concurrency: the update only applies while the stored version equals
	// expectedVersion. Returns a ConcurrencyConflictError when another writer
	// got there first; the caller may reload and retry.
	Save(ctx context.Context, aggregate *order.Order, expectedVersion int) error

	// Get retrieves an order aggregate by its unique identifier, fully
	// hydrated with items, payment, stock, loyalty and audit history.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetJourney retrieves the transition audit trail of an order ordered by
	// sequence, without loading the rest of the aggregate.
	GetJourney(ctx context.Context, id kernel.UUID) ([]*order.Journey, error)

	// AppendLog persists activity diagnostic rows for an order outside the
	// aggregate save path. Used when an activity outcome must be recorded
	// even though the surrounding command failed.
	AppendLog(ctx context.Context, id kernel.UUID, logs []*order.ActionLog) error
}
