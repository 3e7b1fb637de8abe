package saga

import (
	"context"

	"orderflow/internal/core/ports"
)

// Unit of Work interfaces used by the engine. Order mutations and checkpoint
// updates of one step boundary share a transaction, so a crash never leaves
// the checkpoint ahead of the order or behind it.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// UoW manages transactions spanning the order aggregate and the workflow
	// checkpoint.
	UoW interface {
		TxManager
		OrderRepository() ports.OrderRepository
		WorkflowRepository() ports.WorkflowRepository
	}

	// UoWFactory creates new unit of work instances.
	UoWFactory interface {
		Create() UoW
	}
)
