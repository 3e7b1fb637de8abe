// Package queries contains read-only operations for the CQRS query side.
// Handlers read the database directly, bypassing aggregates, and return
// plain response structs tailored to the caller.
package queries

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var (
	ErrGetNextStatesQueryIsNotConstructed = errors.New(
		"GetNextStatesQuery must be created via NewGetNextStatesQuery constructor",
	)
)

// GetNextStatesQuery retrieves the lifecycle states an order can move to
// next, per the transition table. Guard conditions are not evaluated; a
// listed state may still be refused by a guard at transition time.
//
// Example:
//
//	query, err := NewGetNextStatesQuery(orderID)
//	if err != nil {
//	    return err
//	}
//	handler := NewGetNextStatesQueryHandler(db)
//	resp, err := handler.Handle(ctx, query)
type GetNextStatesQuery struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetNextStatesQuery creates a query for an order's reachable states.
func NewGetNextStatesQuery(orderID kernel.UUID) (GetNextStatesQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetNextStatesQuery{}, err
	}

	return GetNextStatesQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetNextStatesQuery) Validate() error {
	return q.guard.Validate(ErrGetNextStatesQueryIsNotConstructed)
}

// OrderID returns the order's identifier.
func (q GetNextStatesQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetNextStatesQueryResponse carries the current state and the states
// reachable from it.
type GetNextStatesQueryResponse struct {
	Current order.State
	Next    []order.State
}
