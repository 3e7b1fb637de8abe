package commands

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
)

// CommandTypeAddOrderItem scopes idempotency keys of item additions.
const CommandTypeAddOrderItem = "AddOrderItem"

// AddOrderItemCommandHandler appends a line to an existing order.
// The reference id is claimed in the same transaction as the mutation, so a
// retried request either replays the stored outcome or runs exactly once.
type AddOrderItemCommandHandler struct {
	uowFactory GuardedUoWFactory
}

// NewAddOrderItemCommandHandler creates a handler for item addition operations.
func NewAddOrderItemCommandHandler(uowFactory GuardedUoWFactory) AddOrderItemCommandHandler {
	return AddOrderItemCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the item addition command.
// A duplicate reference id returns the stored outcome without re-executing.
func (h *AddOrderItemCommandHandler) Handle(ctx context.Context, cmd AddOrderItemCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	key := ports.IdempotencyKey{
		OrderID:     cmd.OrderID(),
		CommandType: CommandTypeAddOrderItem,
		ReferenceID: cmd.ReferenceID(),
	}
	claim, err := uow.IdempotencyGuard().Claim(ctx, key)
	if err != nil {
		return err
	}
	if claim.Duplicate {
		return nil
	}

	aggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	expectedVersion := aggregate.Version()

	price, err := kernel.NewMoney(cmd.UnitPriceCents())
	if err != nil {
		return err
	}
	item, err := order.NewItem(kernel.NewUUID(), cmd.ProductID(), cmd.Quantity(), price)
	if err != nil {
		return err
	}
	if err = aggregate.AddItem(item); err != nil {
		return err
	}

	if err = uow.OrderRepository().Save(ctx, aggregate, expectedVersion); err != nil {
		return err
	}
	if err = uow.IdempotencyGuard().Complete(ctx, key, aggregate.State().String()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
