// Package order provides domain entities and business logic for order
// lifecycle management. It implements the Order aggregate root together with
// the state machine that governs its transitions.
//
// The package includes:
//   - Order: The aggregate root owning items, payment, stock reservations,
//     the loyalty ledger and the audit trail
//   - State: A state machine enforcing the transition table between
//     Initial, Pending, Paid, Completed, Refunded and Cancelled
//   - Journey and ActionLog: append-only audit records
//
// Key business rules:
//   - Transition validation is all-or-nothing; guards are evaluated before
//     any mutation
//   - Moving to Paid requires a captured payment covering the order total
//   - Moving to Completed additionally requires every stock entry confirmed
//   - Cancelling a Completed order is subject to a pluggable cancellation policy
//   - Every successful transition appends a Journey entry persisted in the
//     same transaction as the state change
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
