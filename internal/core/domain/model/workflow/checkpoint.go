package workflow

import (
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrCheckpointIsNotConstructed is returned when a Checkpoint instance was
	// not created through the NewCheckpoint factory method.
	ErrCheckpointIsNotConstructed = errors.New("Checkpoint must be created via NewCheckpoint constructor")
)

// Status represents the lifecycle of one workflow run.
type Status int

const (
	// UnknownStatus represents an invalid or undefined status.
	UnknownStatus Status = iota

	// Running indicates forward steps are executing.
	Running

	// Compensating indicates a forward step failed terminally and the
	// completed steps are being undone in reverse order.
	Compensating

	// Completed indicates every forward step succeeded.
	Completed

	// Cancelled indicates the run stopped after compensation, either because
	// of a terminal decline or a cooperative cancel request.
	Cancelled

	// ManualReview indicates compensation itself exhausted its retries and an
	// operator must intervene.
	ManualReview

	// Failed indicates the run stopped for a non-compensatable reason, such
	// as a corrupted checkpoint.
	Failed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		UnknownStatus: "Unknown",
		Running:       "Running",
		Compensating:  "Compensating",
		Completed:     "Completed",
		Cancelled:     "Cancelled",
		ManualReview:  "ManualReview",
		Failed:        "Failed",
	}
}

// Validate checks if the Status is one of the defined lifecycle values.
func (s Status) Validate() error {
	if s == UnknownStatus {
		return errs.NewValueIsInvalidErrorWithCause(
			"workflow status is invalid",
			fmt.Errorf("%d is not a valid workflow status", s),
		)
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"workflow status is invalid",
			fmt.Errorf("%d is not a valid workflow status", s),
		)
	}
	return nil
}

// String returns the human-readable name of the status.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether the run will make no further progress.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == ManualReview || s == Failed
}

// IDForOrder derives the deterministic workflow id for an order. One order
// maps to exactly one workflow id, which is what makes the at-most-one-run
// guarantee enforceable with a unique insert.
func IDForOrder(orderID kernel.UUID) string {
	return "wf-" + orderID.String()
}

// Checkpoint is the durable progress record of one workflow run. It is
// persisted after every step boundary so a crashed run resumes from the last
// completed step instead of starting over.
type Checkpoint struct {
	workflowID      string
	orderID         kernel.UUID
	status          Status
	stepIndex       int
	completedSteps  []string
	attempts        int
	lastError       string
	cancelRequested bool
	updatedAt       time.Time
	isConstructed   bool
}

// NewCheckpoint creates the checkpoint for a fresh run: Running, positioned
// before the first step.
func NewCheckpoint(orderID kernel.UUID) (*Checkpoint, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	return &Checkpoint{
		workflowID:    IDForOrder(orderID),
		orderID:       orderID,
		status:        Running,
		updatedAt:     time.Now().UTC(),
		isConstructed: true,
	}, nil
}

// RestoreCheckpoint reconstructs a Checkpoint from persistence.
func RestoreCheckpoint(
	workflowID string,
	orderID kernel.UUID,
	status Status,
	stepIndex int,
	completedSteps []string,
	attempts int,
	lastError string,
	cancelRequested bool,
	updatedAt time.Time,
) (*Checkpoint, error) {
	if workflowID == "" {
		return nil, errs.NewValueIsRequiredError("workflowID")
	}
	if err := errors.Join(orderID.Validate(), status.Validate()); err != nil {
		return nil, err
	}

	return &Checkpoint{
		workflowID:      workflowID,
		orderID:         orderID,
		status:          status,
		stepIndex:       stepIndex,
		completedSteps:  completedSteps,
		attempts:        attempts,
		lastError:       lastError,
		cancelRequested: cancelRequested,
		updatedAt:       updatedAt,
		isConstructed:   true,
	}, nil
}

// Validate ensures the Checkpoint instance was properly constructed.
func (c *Checkpoint) Validate() error {
	if c == nil || !c.isConstructed {
		return ErrCheckpointIsNotConstructed
	}
	return nil
}

// WorkflowID returns the run's deterministic identifier.
func (c *Checkpoint) WorkflowID() string {
	return c.workflowID
}

// OrderID returns the order this run orchestrates.
func (c *Checkpoint) OrderID() kernel.UUID {
	return c.orderID
}

// Status returns the run's lifecycle status.
func (c *Checkpoint) Status() Status {
	return c.status
}

// StepIndex returns the index of the next forward step to execute while
// Running, or of the next compensation while Compensating.
func (c *Checkpoint) StepIndex() int {
	return c.stepIndex
}

// CompletedSteps returns the names of forward steps that succeeded, in order.
func (c *Checkpoint) CompletedSteps() []string {
	out := make([]string, len(c.completedSteps))
	copy(out, c.completedSteps)
	return out
}

// Attempts returns how many times the current step has been attempted.
func (c *Checkpoint) Attempts() int {
	return c.attempts
}

// LastError returns the message of the most recent step failure, if any.
func (c *Checkpoint) LastError() string {
	return c.lastError
}

// CancelRequested reports whether a cooperative cancel was requested.
// The run observes it at the next step boundary.
func (c *Checkpoint) CancelRequested() bool {
	return c.cancelRequested
}

// UpdatedAt returns when the checkpoint was last persisted.
func (c *Checkpoint) UpdatedAt() time.Time {
	return c.updatedAt
}

// StepCompleted records that the named forward step succeeded and positions
// the run before the next one. The attempt counter restarts per step.
func (c *Checkpoint) StepCompleted(stepName string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if stepName == "" {
		return errs.NewValueIsRequiredError("stepName")
	}

	c.completedSteps = append(c.completedSteps, stepName)
	c.stepIndex++
	c.attempts = 0
	c.lastError = ""
	c.touch()
	return nil
}

// AttemptFailed records one failed attempt of the current step.
func (c *Checkpoint) AttemptFailed(cause error) {
	c.attempts++
	if cause != nil {
		c.lastError = cause.Error()
	}
	c.touch()
}

// CompensationProgressed records that the most recently completed step was
// undone, positioning the run before the previous one.
func (c *Checkpoint) CompensationProgressed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.completedSteps) == 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"checkpoint is invalid",
			errors.New("no completed steps left to compensate"),
		)
	}

	c.completedSteps = c.completedSteps[:len(c.completedSteps)-1]
	c.stepIndex = len(c.completedSteps)
	c.attempts = 0
	c.lastError = ""
	c.touch()
	return nil
}

// StartCompensating flips the run into compensation mode, keeping the failure
// that triggered it.
func (c *Checkpoint) StartCompensating(cause error) {
	c.status = Compensating
	c.stepIndex = len(c.completedSteps)
	c.attempts = 0
	if cause != nil {
		c.lastError = cause.Error()
	}
	c.touch()
}

// MarkCompleted records that every forward step succeeded.
func (c *Checkpoint) MarkCompleted() {
	c.status = Completed
	c.lastError = ""
	c.touch()
}

// MarkCancelled records that the run stopped after compensation.
func (c *Checkpoint) MarkCancelled() {
	c.status = Cancelled
	c.touch()
}

// MarkManualReview records that compensation exhausted its retries and an
// operator must intervene.
func (c *Checkpoint) MarkManualReview(cause error) {
	c.status = ManualReview
	if cause != nil {
		c.lastError = cause.Error()
	}
	c.touch()
}

// MarkFailed records a non-compensatable failure, such as a corrupted
// checkpoint.
func (c *Checkpoint) MarkFailed(cause error) {
	c.status = Failed
	if cause != nil {
		c.lastError = cause.Error()
	}
	c.touch()
}

// RequestCancel asks the run to stop cooperatively. In-flight work is never
// interrupted; the request takes effect at the next step boundary.
func (c *Checkpoint) RequestCancel() {
	c.cancelRequested = true
	c.touch()
}

func (c *Checkpoint) touch() {
	c.updatedAt = time.Now().UTC()
}
