package order

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrActionLogIsNotConstructed is returned when an ActionLog instance was
	// not created through the NewActionLog factory method.
	ErrActionLogIsNotConstructed = errors.New("ActionLog must be created via NewActionLog constructor")
)

// ActionLog is an immutable free-form diagnostic record of one activity
// invocation (attempted, succeeded or failed). Rows are appended regardless
// of whether the overall command succeeded, giving a forensic trail
// independent of final outcome.
type ActionLog struct {
	id            kernel.UUID
	action        string
	result        string
	correlationID string
	at            time.Time
	sequence      int
	isConstructed bool
}

// NewActionLog creates a diagnostic record for an activity invocation.
func NewActionLog(
	id kernel.UUID,
	action string,
	result string,
	correlationID string,
	at time.Time,
	sequence int,
) (*ActionLog, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if action == "" {
		return nil, errs.NewValueIsRequiredError("action")
	}

	return &ActionLog{
		id:            id,
		action:        action,
		result:        result,
		correlationID: correlationID,
		at:            at,
		sequence:      sequence,
		isConstructed: true,
	}, nil
}

// RestoreActionLog reconstructs an ActionLog from persistence.
func RestoreActionLog(
	id kernel.UUID,
	action string,
	result string,
	correlationID string,
	at time.Time,
	sequence int,
) (*ActionLog, error) {
	return NewActionLog(id, action, result, correlationID, at, sequence)
}

// Validate ensures the ActionLog instance was properly constructed.
func (l *ActionLog) Validate() error {
	if l == nil || !l.isConstructed {
		return ErrActionLogIsNotConstructed
	}
	return nil
}

// ID returns the diagnostic record's unique identifier.
func (l *ActionLog) ID() kernel.UUID {
	return l.id
}

// Action returns what activity ran.
func (l *ActionLog) Action() string {
	return l.action
}

// Result returns how the invocation ended.
func (l *ActionLog) Result() string {
	return l.result
}

// CorrelationID returns the id correlating the invocation with its workflow run.
func (l *ActionLog) CorrelationID() string {
	return l.correlationID
}

// At returns when the invocation was recorded.
func (l *ActionLog) At() time.Time {
	return l.at
}

// Sequence returns the monotonically increasing position within the order's log.
func (l *ActionLog) Sequence() int {
	return l.sequence
}
