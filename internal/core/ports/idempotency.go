package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
)

// WaitMode configures how an IdempotencyGuard treats a duplicate request whose
// first attempt is still in flight.
type WaitMode int

const (
	// FailFast rejects the duplicate immediately with RequestInProgressError.
	FailFast WaitMode = iota

	// Block polls until the first attempt records an outcome or the caller's
	// context is done.
	Block
)

// IdempotencyKey identifies one logical request. Two requests with the same
// key are the same request; replays return the stored outcome instead of
// executing again.
type IdempotencyKey struct {
	OrderID     kernel.UUID
	CommandType string
	ReferenceID kernel.ReferenceID
}

// Claim is the result of attempting to register a request.
// When Duplicate is true the request already ran and Outcome carries the
// stored result of the first execution.
type Claim struct {
	Duplicate bool
	Outcome   string
}

// IdempotencyGuard deduplicates commands by reference id. Claiming is atomic
// (insert-if-absent); two concurrent claims for the same key never both win.
type IdempotencyGuard interface {
	// Claim registers the key. The winner gets Claim{Duplicate: false} and
	// must later call Complete or Release. A caller replaying a completed
	// request gets Claim{Duplicate: true, Outcome: stored}. A caller racing
	// an in-flight request either fails fast with RequestInProgressError or
	// blocks until the outcome is recorded, per the guard's WaitMode.
	Claim(ctx context.Context, key IdempotencyKey) (Claim, error)

	// Complete stores the outcome of the first execution so replays can
	// return it without re-executing.
	Complete(ctx context.Context, key IdempotencyKey, outcome string) error

	// Release frees the key after a failed attempt, allowing a retry with the
	// same reference id to execute again.
	Release(ctx context.Context, key IdempotencyKey) error
}
