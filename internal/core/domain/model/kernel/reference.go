package kernel

import (
	"strings"

	"orderflow/internal/pkg/errs"
)

// ErrReferenceIDIsRequired indicates a missing caller-supplied reference id.
var ErrReferenceIDIsRequired = errs.NewValueIsRequiredError(
	"reference id must be created via NewReferenceID",
)

// ReferenceID is the caller-supplied idempotency reference that accompanies
// every mutating command. Two requests carrying the same reference id for the
// same order and command type are treated as the same logical intent: the
// second one replays the recorded outcome instead of running again.
//
// The zero value is invalid; construct via NewReferenceID.
type ReferenceID struct {
	value string
}

// NewReferenceID creates a ReferenceID from a non-empty string.
// Surrounding whitespace is trimmed.
func NewReferenceID(value string) (ReferenceID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ReferenceID{}, ErrReferenceIDIsRequired
	}
	return ReferenceID{value: trimmed}, nil
}

// String returns the reference id value.
func (r ReferenceID) String() string {
	return r.value
}

// IsEqual compares two reference ids for equality.
func (r ReferenceID) IsEqual(other ReferenceID) bool {
	return r.value == other.value
}

// Validate checks that the ReferenceID was constructed via NewReferenceID.
func (r ReferenceID) Validate() error {
	if r.value == "" {
		return ErrReferenceIDIsRequired
	}
	return nil
}
