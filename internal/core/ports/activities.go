package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
)

// Activity ports wrap external systems invoked by the order workflow.
// Implementations distinguish business refusals (ActivityDeclinedError, not
// retryable) from infrastructure trouble (ActivityTransientError, retryable).
// Every call carries a reference id so the remote side can deduplicate
// retried invocations.

// StockActivity reserves, confirms and releases inventory for an order.
type StockActivity interface {
	// Reserve places a hold on the given quantity of a product.
	Reserve(ctx context.Context, orderID kernel.UUID, productID kernel.UUID, quantity int, referenceID kernel.ReferenceID) error

	// Confirm finalizes every reservation held for the order.
	Confirm(ctx context.Context, orderID kernel.UUID, referenceID kernel.ReferenceID) error

	// Release frees every reservation held for the order. Safe to repeat.
	Release(ctx context.Context, orderID kernel.UUID, referenceID kernel.ReferenceID) error
}

// PaymentActivity captures and refunds payments for an order.
type PaymentActivity interface {
	// Capture charges the buyer for the given amount.
	Capture(ctx context.Context, orderID kernel.UUID, amount kernel.Money, referenceID kernel.ReferenceID) error

	// Refund returns a previously captured amount to the buyer.
	Refund(ctx context.Context, orderID kernel.UUID, amount kernel.Money, referenceID kernel.ReferenceID) error
}

// LoyaltyActivity accrues and spends loyalty points for an order.
type LoyaltyActivity interface {
	// Earn credits points to the buyer's balance.
	Earn(ctx context.Context, orderID kernel.UUID, points int, referenceID kernel.ReferenceID) error

	// Burn debits points from the buyer's balance.
	Burn(ctx context.Context, orderID kernel.UUID, points int, referenceID kernel.ReferenceID) error

	// Reverse undoes the earn or burn identified by the given reference id.
	// Safe to repeat.
	Reverse(ctx context.Context, orderID kernel.UUID, referenceID kernel.ReferenceID) error
}
