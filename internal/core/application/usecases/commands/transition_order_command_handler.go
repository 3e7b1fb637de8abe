package commands

import (
	"context"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
)

// CommandTypeTransitionOrder scopes idempotency keys of transitions.
const CommandTypeTransitionOrder = "TransitionOrder"

// TransitionResult is the outcome of a transition command.
// Replayed is true when a duplicate reference id returned the stored outcome
// of the first execution instead of running again.
type TransitionResult struct {
	State    order.State
	Replayed bool
}

// TransitionOrderCommandHandler moves an order through its lifecycle.
//
// The handler composes three protections in one transaction:
//   - idempotency: the reference id is claimed insert-if-absent; duplicates
//     replay the stored outcome
//   - domain guards: the aggregate fully validates table membership and guard
//     conditions before mutating
//   - optimistic concurrency: the save only applies while the stored version
//     equals the version read at load time
//
// Any failure rolls the transaction back, which also frees the claim so the
// caller can retry with the same reference id.
type TransitionOrderCommandHandler struct {
	uowFactory GuardedUoWFactory
	policy     order.CancellationPolicy
}

// NewTransitionOrderCommandHandler creates a handler for transition operations.
// The cancellation policy is consulted when cancelling Completed orders.
func NewTransitionOrderCommandHandler(uowFactory GuardedUoWFactory, policy order.CancellationPolicy) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		policy:     policy,
	}
}

// Handle processes the transition command and returns the resulting state.
func (h *TransitionOrderCommandHandler) Handle(ctx context.Context, cmd TransitionOrderCommand) (TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return TransitionResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	key := ports.IdempotencyKey{
		OrderID:     cmd.OrderID(),
		CommandType: CommandTypeTransitionOrder,
		ReferenceID: cmd.ReferenceID(),
	}
	claim, err := uow.IdempotencyGuard().Claim(ctx, key)
	if err != nil {
		return TransitionResult{}, err
	}
	if claim.Duplicate {
		state, parseErr := order.ParseState(claim.Outcome)
		if parseErr != nil {
			return TransitionResult{}, parseErr
		}
		return TransitionResult{State: state, Replayed: true}, nil
	}

	aggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return TransitionResult{}, err
	}
	expectedVersion := aggregate.Version()

	if err = aggregate.TransitionTo(cmd.Target(), cmd.ReferenceID(), h.policy); err != nil {
		return TransitionResult{}, err
	}

	if err = uow.OrderRepository().Save(ctx, aggregate, expectedVersion); err != nil {
		return TransitionResult{}, err
	}
	if err = uow.IdempotencyGuard().Complete(ctx, key, aggregate.State().String()); err != nil {
		return TransitionResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return TransitionResult{}, err
	}

	return TransitionResult{State: aggregate.State()}, nil
}
