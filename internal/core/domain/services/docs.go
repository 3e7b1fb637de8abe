// Package services provides domain services for order lifecycle decisions
// that don't naturally belong to a single aggregate root.
//
// The package includes:
//   - FulfilledOrderCancellationPolicy: decides whether a Completed order may
//     still be cancelled, based on a fulfillment window
//   - RatioLoyaltyPolicy: computes the loyalty points an order earns
//
// Services here are pure domain logic: no I/O, no persistence, no transport.
package services
