package saga

import "context"

// Step is one unit of the workflow: a forward action and the compensation
// that undoes it.
//
// Execute and Compensate must both be idempotent with respect to the step's
// reference id: the engine retries them after transient failures and replays
// them after a crash, so running either twice must have the effect of running
// it once. Compensate is only invoked for steps whose Execute succeeded, in
// reverse completion order.
type Step interface {
	// Name identifies the step in checkpoints and reference ids. Names must
	// be stable across releases; a checkpoint referencing an unknown name is
	// treated as corrupted.
	Name() string

	// Execute performs the forward action.
	Execute(ctx context.Context) error

	// Compensate undoes a previously successful Execute.
	Compensate(ctx context.Context) error
}
