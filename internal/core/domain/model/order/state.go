package order

import (
	"fmt"

	"orderflow/internal/pkg/errs"
)

// State represents the lifecycle state of an order.
// It implements a state machine with a fixed transition table; guard
// conditions (payment coverage, stock confirmation, cancellation policy) are
// layered on top of table membership by Order.TransitionTo.
//
// State transitions:
//
//	Initial ──> Pending ──┬──> Paid ──┬──> Completed ──> Cancelled
//	               ▲      │           └──> Refunded  ──> Cancelled
//	               │      └──> Cancelled
//	               └─────────────────────────(reactivation)┘
//
// Cancelled orders may be reactivated back to Pending.
type State int

const (
	// Unknown represents an invalid or undefined state.
	// This value (0) helps catch uninitialized State values.
	Unknown State = iota

	// Initial is the state of a freshly created order. Items may still be added.
	Initial

	// Pending indicates the order is awaiting payment. Items may still be added.
	Pending

	// Paid indicates the captured payment covers the order total.
	Paid

	// Completed indicates payment is captured and every stock entry is confirmed.
	Completed

	// Refunded indicates the captured payment was returned to the buyer.
	Refunded

	// Cancelled indicates the order was abandoned. It can be reactivated to Pending.
	Cancelled
)

// transitionTable returns the allowed (from -> to) pairs.
// It is the single source of truth for table membership; CanTransition and
// NextStates consult it and nothing else.
func transitionTable() map[State][]State {
	return map[State][]State{
		Initial:   {Pending},
		Pending:   {Paid, Cancelled},
		Paid:      {Completed, Refunded},
		Refunded:  {Cancelled},
		Completed: {Cancelled},
		Cancelled: {Pending},
	}
}

// getStateStrings returns a map of State values to their string representations.
func getStateStrings() map[State]string {
	return map[State]string{
		Unknown:   "Unknown",
		Initial:   "Initial",
		Pending:   "Pending",
		Paid:      "Paid",
		Completed: "Completed",
		Refunded:  "Refunded",
		Cancelled: "Cancelled",
	}
}

// getValidStateStrings returns a map of only valid State values.
func getValidStateStrings() map[State]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[State]string{
		Initial:   "Initial",
		Pending:   "Pending",
		Paid:      "Paid",
		Completed: "Completed",
		Refunded:  "Refunded",
		Cancelled: "Cancelled",
	}
}

// Validate checks if the State value is one of the defined lifecycle states.
//
// Returns:
//   - nil if the state is valid
//   - error with details if the state is invalid
func (s State) Validate() error {
	if _, ok := getValidStateStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("state is invalid", fmt.Errorf("%d is not a valid state", s))
	}
	return nil
}

// String returns the human-readable name of the state.
// Implements fmt.Stringer and is safe to call on any State value.
func (s State) String() string {
	if str, ok := getStateStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// CanTransition reports whether the transition table permits moving from s to
// target. It is a pure function: no side effects, no I/O, and no guard
// conditions; those are evaluated separately by Order.TransitionTo.
func (s State) CanTransition(target State) bool {
	for _, allowed := range transitionTable()[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// NextStates returns the set of states reachable from s per the transition
// table. The result is a copy; mutating it does not affect the table.
func (s State) NextStates() []State {
	allowed := transitionTable()[s]
	out := make([]State, len(allowed))
	copy(out, allowed)
	return out
}

// ParseState converts a state name (as produced by String) back to a State.
// Used when reconstructing states from persistence or API requests.
func ParseState(name string) (State, error) {
	for state, str := range getValidStateStrings() {
		if str == name {
			return state, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"state is invalid",
		fmt.Errorf("%q is not a valid state name", name),
	)
}
