package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classification with errors.Is.
var (
	ErrObjectNotFound      = errors.New("object not found")
	ErrValueIsInvalid      = errors.New("value is invalid")
	ErrValueIsRequired     = errors.New("value is required")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrActivityDeclined    = errors.New("activity declined")
	ErrActivityTransient   = errors.New("activity transient failure")
	ErrRequestInProgress   = errors.New("request is still in progress")
)

// sanitize strips newlines from values interpolated into error messages
// so a single error always renders as a single log line.
func sanitize(v any) string {
	return strings.ReplaceAll(fmt.Sprintf("%v", v), "\n", " ")
}

// ObjectNotFoundError indicates that an entity could not be located by its identifier.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

// NewObjectNotFoundError creates an ObjectNotFoundError without an underlying cause.
func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id}
}

// NewObjectNotFoundErrorWithCause creates an ObjectNotFoundError wrapping an underlying cause.
func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %s)",
			ErrObjectNotFound, e.ParamName, sanitize(e.ID), e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrObjectNotFound, e.ID)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// ValueIsInvalidError indicates that a supplied value failed validation.
type ValueIsInvalidError struct {
	ParamName string
	Cause     error
}

// NewValueIsInvalidError creates a ValueIsInvalidError without an underlying cause.
func NewValueIsInvalidError(paramName string) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName}
}

// NewValueIsInvalidErrorWithCause creates a ValueIsInvalidError wrapping an underlying cause.
func NewValueIsInvalidErrorWithCause(paramName string, cause error) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %s)", ErrValueIsInvalid, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName)
}

func (e *ValueIsInvalidError) Unwrap() error {
	return ErrValueIsInvalid
}

// ValueIsRequiredError indicates that a mandatory value is missing.
type ValueIsRequiredError struct {
	ParamName string
	Cause     error
}

// NewValueIsRequiredError creates a ValueIsRequiredError without an underlying cause.
func NewValueIsRequiredError(paramName string) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName}
}

// NewValueIsRequiredErrorWithCause creates a ValueIsRequiredError wrapping an underlying cause.
func NewValueIsRequiredErrorWithCause(paramName string, cause error) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsRequiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %s)", ErrValueIsRequired, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsRequired, e.ParamName)
}

func (e *ValueIsRequiredError) Unwrap() error {
	return ErrValueIsRequired
}

// InvalidTransitionError indicates that a requested order state change is not
// permitted, either because the (from, to) pair is absent from the transition
// table or because a guard condition was violated. Rule names the violated rule
// and is surfaced verbatim to the caller.
type InvalidTransitionError struct {
	From string
	To   string
	Rule string
}

// NewInvalidTransitionError creates an InvalidTransitionError naming the violated rule.
func NewInvalidTransitionError(from, to, rule string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to, Rule: rule}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s (rule: %s)", ErrInvalidTransition, e.From, e.To, e.Rule)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ConcurrencyConflictError indicates that an aggregate was modified between
// load and save. The caller is expected to re-read and retry.
type ConcurrencyConflictError struct {
	ParamName       string
	ID              any
	ExpectedVersion int
}

// NewConcurrencyConflictError creates a ConcurrencyConflictError for a stale aggregate version.
func NewConcurrencyConflictError(paramName string, id any, expectedVersion int) *ConcurrencyConflictError {
	return &ConcurrencyConflictError{ParamName: paramName, ID: id, ExpectedVersion: expectedVersion}
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("%s: %s %s is not at version %d",
		ErrConcurrencyConflict, e.ParamName, sanitize(e.ID), e.ExpectedVersion)
}

func (e *ConcurrencyConflictError) Unwrap() error {
	return ErrConcurrencyConflict
}

// ActivityDeclinedError indicates a business-level refusal from a remote
// activity (payment declined, stock unavailable, insufficient points).
// It is not retryable and triggers saga compensation.
type ActivityDeclinedError struct {
	Activity string
	Reason   string
	Cause    error
}

// NewActivityDeclinedError creates an ActivityDeclinedError for a business refusal.
func NewActivityDeclinedError(activity, reason string) *ActivityDeclinedError {
	return &ActivityDeclinedError{Activity: activity, Reason: reason}
}

// NewActivityDeclinedErrorWithCause creates an ActivityDeclinedError wrapping an underlying cause.
func NewActivityDeclinedErrorWithCause(activity, reason string, cause error) *ActivityDeclinedError {
	return &ActivityDeclinedError{Activity: activity, Reason: reason, Cause: cause}
}

func (e *ActivityDeclinedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s (cause: %s)", ErrActivityDeclined, e.Activity, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", ErrActivityDeclined, e.Activity, e.Reason)
}

func (e *ActivityDeclinedError) Unwrap() error {
	return ErrActivityDeclined
}

// ActivityTransientError indicates a network or timeout failure from a remote
// activity. It is retried with backoff; once attempts are exhausted the caller
// escalates it to declined handling.
type ActivityTransientError struct {
	Activity string
	Cause    error
}

// NewActivityTransientError creates an ActivityTransientError wrapping the transport failure.
func NewActivityTransientError(activity string, cause error) *ActivityTransientError {
	return &ActivityTransientError{Activity: activity, Cause: cause}
}

func (e *ActivityTransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %s)", ErrActivityTransient, e.Activity, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrActivityTransient, e.Activity)
}

func (e *ActivityTransientError) Unwrap() error {
	return ErrActivityTransient
}

// RequestInProgressError indicates that a command with the same reference id
// is still being processed. Returned by the idempotency guard in fail-fast mode.
type RequestInProgressError struct {
	ReferenceID string
}

// NewRequestInProgressError creates a RequestInProgressError for a duplicate in-flight command.
func NewRequestInProgressError(referenceID string) *RequestInProgressError {
	return &RequestInProgressError{ReferenceID: referenceID}
}

func (e *RequestInProgressError) Error() string {
	return fmt.Sprintf("%s: reference id is: %s", ErrRequestInProgress, e.ReferenceID)
}

func (e *RequestInProgressError) Unwrap() error {
	return ErrRequestInProgress
}
