// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"orderflow/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// GuardFactory provides access to the idempotency guard within a transaction.
	GuardFactory interface {
		IdempotencyGuard() ports.IdempotencyGuard
	}

	// WorkflowRepoFactory provides access to the workflow repository within a transaction.
	WorkflowRepoFactory interface {
		WorkflowRepository() ports.WorkflowRepository
	}

	// OrderUoW manages transactions for plain order operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// GuardedUoW manages transactions for idempotency-guarded order commands.
	// Claiming the reference id and mutating the order share one transaction:
	// a rollback frees the claim, a commit publishes claim and outcome
	// atomically with the state change.
	GuardedUoW interface {
		TxManager
		OrderRepoFactory
		GuardFactory
	}

	// GuardedUoWFactory creates new guarded unit of work instances.
	GuardedUoWFactory interface {
		Create() GuardedUoW
	}
)
