package services

import (
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/order"
)

// ErrOrderAlreadyFulfilled is returned when a cancellation is refused because
// the completed order has left the fulfillment window.
var ErrOrderAlreadyFulfilled = errors.New("order is already fulfilled")

// FulfilledOrderCancellationPolicy is a domain service deciding whether a
// Completed order may still be cancelled. It refuses cancellation once the
// order has been completed for longer than the fulfillment window, the point
// at which the goods are considered handed over to the carrier.
//
// Orders in earlier states never consult this policy; the transition table
// and guards handle them directly.
//
// Example usage:
//
//	policy := services.NewFulfilledOrderCancellationPolicy(24 * time.Hour)
//	err := o.TransitionTo(order.Cancelled, ref, policy)
//	if errors.Is(err, errs.ErrInvalidTransition) {
//	    // cancellation window elapsed
//	}
type FulfilledOrderCancellationPolicy struct {
	fulfillmentWindow time.Duration
}

// NewFulfilledOrderCancellationPolicy creates the policy with the given
// fulfillment window. A zero or negative window makes every Completed order
// non-cancellable.
func NewFulfilledOrderCancellationPolicy(fulfillmentWindow time.Duration) FulfilledOrderCancellationPolicy {
	return FulfilledOrderCancellationPolicy{fulfillmentWindow: fulfillmentWindow}
}

// AllowCancellation returns nil while the order is still inside the
// fulfillment window, or an error naming the violated rule once it is not.
func (p FulfilledOrderCancellationPolicy) AllowCancellation(o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.State() != order.Completed {
		return nil
	}
	if time.Since(o.UpdatedAt()) > p.fulfillmentWindow {
		return fmt.Errorf("%w: completed more than %s ago", ErrOrderAlreadyFulfilled, p.fulfillmentWindow)
	}
	return nil
}
