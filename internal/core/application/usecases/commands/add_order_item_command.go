package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/guard"
)

var (
	ErrAddOrderItemCommandIsNotConstructed = errors.New(
		"AddOrderItemCommand must be created via NewAddOrderItemCommand constructor",
	)
)

// AddOrderItemCommand represents a request to append a line to an existing
// order. Valid while the order is in Initial or Pending state; the reference
// id deduplicates client retries.
type AddOrderItemCommand struct { //nolint:recvcheck //using for validation
	orderID        kernel.UUID
	productID      kernel.UUID
	quantity       int
	unitPriceCents int64
	referenceID    kernel.ReferenceID

	guard guard.ConstructorGuard
}

// NewAddOrderItemCommand creates a command to append an order line.
func NewAddOrderItemCommand(
	orderID kernel.UUID,
	productID kernel.UUID,
	quantity int,
	unitPriceCents int64,
	referenceID kernel.ReferenceID,
) (AddOrderItemCommand, error) {
	cmd := AddOrderItemCommand{
		quantity:       quantity,
		unitPriceCents: unitPriceCents,
		guard:          guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setProductID(productID),
		cmd.setReferenceID(referenceID),
	); err != nil {
		return AddOrderItemCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AddOrderItemCommand) Validate() error {
	return c.guard.Validate(ErrAddOrderItemCommandIsNotConstructed)
}

// OrderID returns the target order's identifier.
func (c AddOrderItemCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ProductID returns the product to add.
func (c AddOrderItemCommand) ProductID() kernel.UUID {
	return c.productID
}

// Quantity returns the number of units to add.
func (c AddOrderItemCommand) Quantity() int {
	return c.quantity
}

// UnitPriceCents returns the price per unit in minor units.
func (c AddOrderItemCommand) UnitPriceCents() int64 {
	return c.unitPriceCents
}

// ReferenceID returns the caller-supplied idempotency reference.
func (c AddOrderItemCommand) ReferenceID() kernel.ReferenceID {
	return c.referenceID
}

func (c *AddOrderItemCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *AddOrderItemCommand) setProductID(productID kernel.UUID) error {
	if err := productID.Validate(); err != nil {
		return err
	}

	c.productID = productID
	return nil
}

func (c *AddOrderItemCommand) setReferenceID(referenceID kernel.ReferenceID) error {
	if err := referenceID.Validate(); err != nil {
		return err
	}

	c.referenceID = referenceID
	return nil
}
