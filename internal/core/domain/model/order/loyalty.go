package order

import (
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrLoyaltyIsNotConstructed is returned when a Loyalty instance was not
	// created through the NewLoyalty factory method.
	ErrLoyaltyIsNotConstructed = errors.New("Loyalty must be created via NewLoyalty constructor")
)

// LoyaltyKind distinguishes point accrual from point spending.
type LoyaltyKind int

const (
	LoyaltyEarn LoyaltyKind = iota
	LoyaltyBurn
)

// String returns the human-readable name of the loyalty kind.
func (k LoyaltyKind) String() string {
	switch k {
	case LoyaltyEarn:
		return "Earn"
	case LoyaltyBurn:
		return "Burn"
	}
	return "Unknown"
}

// LoyaltyStatus represents the lifecycle of a loyalty ledger entry.
// An Applied entry is never mutated; a correction is a new entry in
// Reversed status that negates the original when summing the ledger.
type LoyaltyStatus int

const (
	LoyaltyPending LoyaltyStatus = iota
	LoyaltyApplied
	LoyaltyReversed
)

// String returns the human-readable name of the loyalty status.
func (s LoyaltyStatus) String() string {
	switch s {
	case LoyaltyPending:
		return "Pending"
	case LoyaltyApplied:
		return "Applied"
	case LoyaltyReversed:
		return "Reversed"
	}
	return "Unknown"
}

// Loyalty is a point-accounting ledger entry owned by an Order.
// Entries are append-only: corrections are new reversing entries, not edits.
type Loyalty struct {
	id            kernel.UUID
	kind          LoyaltyKind
	points        int
	status        LoyaltyStatus
	referenceID   kernel.ReferenceID
	isConstructed bool
}

// NewLoyalty creates a ledger entry in Pending status.
func NewLoyalty(id kernel.UUID, kind LoyaltyKind, points int, referenceID kernel.ReferenceID) (*Loyalty, error) {
	loyalty := &Loyalty{
		kind:          kind,
		status:        LoyaltyPending,
		isConstructed: true,
	}

	if err := errors.Join(
		loyalty.setID(id),
		loyalty.setPoints(points),
		loyalty.setReferenceID(referenceID),
	); err != nil {
		return nil, err
	}

	return loyalty, nil
}

// RestoreLoyalty reconstructs a Loyalty entry from persistence, including its status.
func RestoreLoyalty(
	id kernel.UUID,
	kind LoyaltyKind,
	points int,
	status LoyaltyStatus,
	referenceID kernel.ReferenceID,
) (*Loyalty, error) {
	loyalty, err := NewLoyalty(id, kind, points, referenceID)
	if err != nil {
		return nil, err
	}
	loyalty.status = status
	return loyalty, nil
}

// Validate ensures the Loyalty instance was properly constructed.
func (l *Loyalty) Validate() error {
	if l == nil || !l.isConstructed {
		return ErrLoyaltyIsNotConstructed
	}
	return nil
}

// ID returns the ledger entry's unique identifier.
func (l *Loyalty) ID() kernel.UUID {
	return l.id
}

// Kind returns whether the entry earns or burns points.
func (l *Loyalty) Kind() LoyaltyKind {
	return l.kind
}

// Points returns the point amount of the entry.
func (l *Loyalty) Points() int {
	return l.points
}

// Status returns the ledger entry's lifecycle status.
func (l *Loyalty) Status() LoyaltyStatus {
	return l.status
}

// ReferenceID returns the idempotency reference of the loyalty call.
func (l *Loyalty) ReferenceID() kernel.ReferenceID {
	return l.referenceID
}

// MarkApplied marks a pending entry as applied. Applied entries are final;
// corrections require a reversing entry via Order.ReverseLoyalty.
func (l *Loyalty) MarkApplied() error {
	if l.status != LoyaltyPending {
		return errs.NewValueIsInvalidErrorWithCause(
			"loyalty status is invalid",
			fmt.Errorf("%s is not a valid status to apply", l.status),
		)
	}
	l.status = LoyaltyApplied
	return nil
}

func (l *Loyalty) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	l.id = id
	return nil
}

func (l *Loyalty) setPoints(points int) error {
	if points <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"points is invalid",
			fmt.Errorf("%d is not greater than 0", points),
		)
	}
	l.points = points
	return nil
}

func (l *Loyalty) setReferenceID(referenceID kernel.ReferenceID) error {
	if err := referenceID.Validate(); err != nil {
		return err
	}
	l.referenceID = referenceID
	return nil
}
