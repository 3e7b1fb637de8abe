package order

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
)

var (
	// ErrJourneyIsNotConstructed is returned when a Journey instance was not
	// created through the NewJourney factory method.
	ErrJourneyIsNotConstructed = errors.New("Journey must be created via NewJourney constructor")
)

// Journey is an immutable audit record of one state transition.
// Rows are append-only: they are written in the same persistence unit as the
// state change itself and are never updated or deleted afterwards.
type Journey struct {
	id            kernel.UUID
	fromState     State
	toState       State
	at            time.Time
	referenceID   kernel.ReferenceID
	sequence      int
	isConstructed bool
}

// NewJourney creates an audit record for a transition that just happened.
func NewJourney(
	id kernel.UUID,
	fromState State,
	toState State,
	at time.Time,
	referenceID kernel.ReferenceID,
	sequence int,
) (*Journey, error) {
	if err := errors.Join(
		id.Validate(),
		fromState.Validate(),
		toState.Validate(),
		referenceID.Validate(),
	); err != nil {
		return nil, err
	}

	return &Journey{
		id:            id,
		fromState:     fromState,
		toState:       toState,
		at:            at,
		referenceID:   referenceID,
		sequence:      sequence,
		isConstructed: true,
	}, nil
}

// RestoreJourney reconstructs a Journey from persistence.
func RestoreJourney(
	id kernel.UUID,
	fromState State,
	toState State,
	at time.Time,
	referenceID kernel.ReferenceID,
	sequence int,
) (*Journey, error) {
	return NewJourney(id, fromState, toState, at, referenceID, sequence)
}

// Validate ensures the Journey instance was properly constructed.
func (j *Journey) Validate() error {
	if j == nil || !j.isConstructed {
		return ErrJourneyIsNotConstructed
	}
	return nil
}

// ID returns the audit record's unique identifier.
func (j *Journey) ID() kernel.UUID {
	return j.id
}

// FromState returns the state the order left.
func (j *Journey) FromState() State {
	return j.fromState
}

// ToState returns the state the order entered.
func (j *Journey) ToState() State {
	return j.toState
}

// At returns when the transition happened.
func (j *Journey) At() time.Time {
	return j.at
}

// ReferenceID returns the reference id of the command that caused the transition.
func (j *Journey) ReferenceID() kernel.ReferenceID {
	return j.referenceID
}

// Sequence returns the monotonically increasing position within the order's journey.
func (j *Journey) Sequence() int {
	return j.sequence
}
