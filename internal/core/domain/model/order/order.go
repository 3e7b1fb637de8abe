package order

import (
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// the NewOrder factory method. This ensures all orders are properly validated.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Transition rule names surfaced verbatim inside InvalidTransitionError.
const (
	RuleNotInTable          = "transition is not in the table"
	RuleInsufficientPayment = "insufficient payment"
	RulePaymentNotCaptured  = "payment is not captured"
	RuleStockNotConfirmed   = "stock is not confirmed"
)

// CancellationPolicy decides whether a Completed order may still be
// cancelled. The default implementation lives in the domain services
// package; it refuses orders that are already fulfilled and shipped.
type CancellationPolicy interface {
	// AllowCancellation returns nil when cancellation is permitted, or an
	// error naming the business rule that forbids it.
	AllowCancellation(o *Order) error
}

// Order is the aggregate root for one purchase order. It owns every child
// collection exclusively (items, payment, stock reservations, loyalty ledger,
// journey and action logs) and is the single consistency boundary for them.
//
// Order follows these invariants:
//   - State is always one of the defined lifecycle values
//   - Version increments on every persisted mutation (optimistic concurrency)
//   - Total always equals the sum of item line totals
//   - At most one active payment record exists at a time
//   - Journey and action log entries are append-only and never mutated
//   - Can only be created through the NewOrder constructor
//
// Transition validation is all-or-nothing: TransitionTo fully evaluates the
// transition table and every guard condition before mutating anything.
type Order struct {
	id        kernel.UUID
	state     State
	version   int
	total     kernel.Money
	createdAt time.Time
	updatedAt time.Time

	items     []*Item
	payment   *Payment
	stocks    []*Stock
	loyalties []*Loyalty
	journeys  []*Journey
	logs      []*ActionLog

	// Audit rows appended since the last save; the repository flushes them
	// in the same transaction as the state change.
	uncommittedJourneys []*Journey
	uncommittedLogs     []*ActionLog

	isConstructed bool
}

// NewOrder creates a new Order in Initial state from at least one item.
// The order total is the sum of the item line totals and version starts at 1.
func NewOrder(id kernel.UUID, items []*Item) (*Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errs.NewValueIsRequiredError("order items")
	}

	total := kernel.Money{}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		total = total.Add(item.LineTotal())
	}

	now := time.Now().UTC()
	return &Order{
		id:            id,
		state:         Initial,
		version:       1,
		total:         total,
		createdAt:     now,
		updatedAt:     now,
		items:         items,
		isConstructed: true,
	}, nil
}

// RestoreOrder reconstructs an Order aggregate from persistence, including
// its children and audit history. Stored data is assumed internally valid;
// only structural checks are repeated.
func RestoreOrder(
	id kernel.UUID,
	state State,
	version int,
	createdAt time.Time,
	updatedAt time.Time,
	items []*Item,
	payment *Payment,
	stocks []*Stock,
	loyalties []*Loyalty,
	journeys []*Journey,
	logs []*ActionLog,
) (*Order, error) {
	if err := errors.Join(id.Validate(), state.Validate()); err != nil {
		return nil, err
	}
	if version < 1 {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"version is invalid",
			fmt.Errorf("%d is not greater than 0", version),
		)
	}

	total := kernel.Money{}
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}

	return &Order{
		id:            id,
		state:         state,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		total:         total,
		items:         items,
		payment:       payment,
		stocks:        stocks,
		loyalties:     loyalties,
		journeys:      journeys,
		logs:          logs,
		isConstructed: true,
	}, nil
}

// Validate ensures the Order instance was properly constructed through
// NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// State returns the current lifecycle state.
func (o *Order) State() State {
	return o.state
}

// Version returns the optimistic-concurrency version read at load time.
func (o *Order) Version() int {
	return o.version
}

// Total returns the order total, always equal to the sum of item line totals.
func (o *Order) Total() kernel.Money {
	return o.total
}

// CreatedAt returns when the order was created.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns when the order was last mutated.
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// Items returns the order lines.
func (o *Order) Items() []*Item {
	return o.items
}

// Payment returns the order's payment record, or nil if none was recorded.
func (o *Order) Payment() *Payment {
	return o.payment
}

// Stocks returns the per-item reservation records.
func (o *Order) Stocks() []*Stock {
	return o.stocks
}

// Loyalties returns the loyalty ledger entries.
func (o *Order) Loyalties() []*Loyalty {
	return o.loyalties
}

// Journeys returns the full transition audit trail, oldest first.
func (o *Order) Journeys() []*Journey {
	return o.journeys
}

// Logs returns the activity diagnostic records, oldest first.
func (o *Order) Logs() []*ActionLog {
	return o.logs
}

// CanTransition reports whether the transition table permits moving to target
// from the current state. Pure table membership; guards are not evaluated.
func (o *Order) CanTransition(target State) bool {
	return o.state.CanTransition(target)
}

// NextStates returns the states reachable from the current state per the table.
func (o *Order) NextStates() []State {
	return o.state.NextStates()
}

// TransitionTo moves the order to the target state.
//
// Validation is fully evaluated before any mutation: first table membership,
// then the guard conditions layered on top of it:
//   - -> Paid requires the captured payment amount to cover the order total
//   - -> Completed requires a captured payment and every stock entry confirmed
//   - -> Refunded requires a captured payment
//   - -> Cancelled from Completed is subject to the cancellation policy
//
// On success the state changes and a Journey entry is appended; the entry is
// persisted in the same transaction as the state change. On failure an
// InvalidTransitionError naming the violated rule is returned and the
// aggregate is left untouched.
func (o *Order) TransitionTo(target State, referenceID kernel.ReferenceID, policy CancellationPolicy) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := errors.Join(target.Validate(), referenceID.Validate()); err != nil {
		return err
	}

	if !o.state.CanTransition(target) {
		return errs.NewInvalidTransitionError(o.state.String(), target.String(), RuleNotInTable)
	}

	switch target {
	case Paid:
		if !o.CapturedAmount().GreaterOrEqual(o.total) {
			return errs.NewInvalidTransitionError(o.state.String(), target.String(), RuleInsufficientPayment)
		}
	case Completed:
		if o.payment == nil || !o.payment.IsCaptured() {
			return errs.NewInvalidTransitionError(o.state.String(), target.String(), RulePaymentNotCaptured)
		}
		if !o.AllStockConfirmed() {
			return errs.NewInvalidTransitionError(o.state.String(), target.String(), RuleStockNotConfirmed)
		}
	case Refunded:
		if o.payment == nil || !o.payment.IsCaptured() {
			return errs.NewInvalidTransitionError(o.state.String(), target.String(), RulePaymentNotCaptured)
		}
	case Cancelled:
		if o.state == Completed && policy != nil {
			if err := policy.AllowCancellation(o); err != nil {
				return errs.NewInvalidTransitionError(o.state.String(), target.String(), err.Error())
			}
		}
	}

	journey, err := NewJourney(
		kernel.NewUUID(),
		o.state,
		target,
		time.Now().UTC(),
		referenceID,
		len(o.journeys),
	)
	if err != nil {
		return err
	}

	o.state = target
	o.journeys = append(o.journeys, journey)
	o.uncommittedJourneys = append(o.uncommittedJourneys, journey)
	o.touch()
	return nil
}

// AddItem appends an order line. Items may only be added while the order is
// in Initial or Pending state; once it reaches Paid the lines are immutable.
// The order total is recomputed to include the new line.
func (o *Order) AddItem(item *Item) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return err
	}
	if o.state != Initial && o.state != Pending {
		return errs.NewValueIsInvalidErrorWithCause(
			"order state is invalid",
			fmt.Errorf("items cannot be added in %s state", o.state),
		)
	}

	o.items = append(o.items, item)
	o.total = o.total.Add(item.LineTotal())
	o.touch()
	return nil
}

// RecordPayment attaches a new pending payment record. An order carries at
// most one active payment; a new record is only accepted when none exists or
// the previous one was refunded (reactivation flow).
func (o *Order) RecordPayment(payment *Payment) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := payment.Validate(); err != nil {
		return err
	}
	if o.payment != nil && o.payment.Status() != PaymentRefunded {
		return errs.NewValueIsInvalidErrorWithCause(
			"payment is invalid",
			fmt.Errorf("order %s already has an active payment", o.id),
		)
	}

	o.payment = payment
	o.touch()
	return nil
}

// CapturePayment marks the pending payment as captured.
func (o *Order) CapturePayment() error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.payment == nil {
		return errs.NewValueIsRequiredError("payment")
	}
	if err := o.payment.Capture(); err != nil {
		return err
	}
	o.touch()
	return nil
}

// RefundPayment marks the captured payment as refunded. The record changes
// status in place; no new payment is created.
func (o *Order) RefundPayment() error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.payment == nil {
		return errs.NewValueIsRequiredError("payment")
	}
	if err := o.payment.Refund(); err != nil {
		return err
	}
	o.touch()
	return nil
}

// CapturedAmount returns the captured payment amount, or zero money when no
// payment has been captured.
func (o *Order) CapturedAmount() kernel.Money {
	if o.payment == nil || !o.payment.IsCaptured() {
		return kernel.Money{}
	}
	return o.payment.Amount()
}

// ReserveStock appends a reservation record for a product. A product holds at
// most one live (non-released) reservation at a time.
func (o *Order) ReserveStock(stock *Stock) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := stock.Validate(); err != nil {
		return err
	}
	for _, existing := range o.stocks {
		if existing.ProductID().IsEqual(stock.ProductID()) && existing.Status() != StockReleased {
			return errs.NewValueIsInvalidErrorWithCause(
				"stock is invalid",
				fmt.Errorf("product %s already has a live reservation", stock.ProductID()),
			)
		}
	}

	o.stocks = append(o.stocks, stock)
	o.touch()
	return nil
}

// ConfirmStock confirms every reserved entry. Entries already confirmed are
// left as-is; a released entry cannot be confirmed.
func (o *Order) ConfirmStock() error {
	if err := o.Validate(); err != nil {
		return err
	}
	for _, stock := range o.stocks {
		if stock.Status() == StockConfirmed {
			continue
		}
		if err := stock.Confirm(); err != nil {
			return err
		}
	}
	o.touch()
	return nil
}

// ReleaseStock releases every reservation. Safe to repeat, which keeps saga
// compensation retries idempotent.
func (o *Order) ReleaseStock() error {
	if err := o.Validate(); err != nil {
		return err
	}
	for _, stock := range o.stocks {
		if err := stock.Release(); err != nil {
			return err
		}
	}
	o.touch()
	return nil
}

// AllStockConfirmed reports whether the order has reservations and every one
// of them is confirmed.
func (o *Order) AllStockConfirmed() bool {
	if len(o.stocks) == 0 {
		return false
	}
	for _, stock := range o.stocks {
		if stock.Status() != StockConfirmed {
			return false
		}
	}
	return true
}

// AddLoyalty appends a loyalty ledger entry.
func (o *Order) AddLoyalty(entry *Loyalty) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	o.loyalties = append(o.loyalties, entry)
	o.touch()
	return nil
}

// ApplyLoyalty marks the pending ledger entry carrying the given reference id
// as applied.
func (o *Order) ApplyLoyalty(referenceID kernel.ReferenceID) error {
	if err := o.Validate(); err != nil {
		return err
	}
	for _, entry := range o.loyalties {
		if entry.ReferenceID().IsEqual(referenceID) && entry.Status() == LoyaltyPending {
			if err := entry.MarkApplied(); err != nil {
				return err
			}
			o.touch()
			return nil
		}
	}
	return errs.NewObjectNotFoundError("loyalty reference", referenceID.String())
}

// ReverseLoyalty appends a reversing entry for an applied ledger entry.
// The original entry is never edited; the new Reversed entry negates it when
// the ledger is summed.
func (o *Order) ReverseLoyalty(originalRef kernel.ReferenceID, reversalRef kernel.ReferenceID) error {
	if err := o.Validate(); err != nil {
		return err
	}
	for _, entry := range o.loyalties {
		if entry.ReferenceID().IsEqual(originalRef) && entry.Status() == LoyaltyApplied {
			reversal, err := NewLoyalty(kernel.NewUUID(), entry.Kind(), entry.Points(), reversalRef)
			if err != nil {
				return err
			}
			reversal.status = LoyaltyReversed
			o.loyalties = append(o.loyalties, reversal)
			o.touch()
			return nil
		}
	}
	return errs.NewObjectNotFoundError("loyalty reference", originalRef.String())
}

// LoyaltyBalance returns the net point effect of the ledger: applied earns
// count positive, applied burns negative, and reversing entries negate the
// entry they correct. Pending entries have no effect yet.
func (o *Order) LoyaltyBalance() int {
	balance := 0
	for _, entry := range o.loyalties {
		sign := 1
		if entry.Kind() == LoyaltyBurn {
			sign = -1
		}
		switch entry.Status() {
		case LoyaltyApplied:
			balance += sign * entry.Points()
		case LoyaltyReversed:
			balance -= sign * entry.Points()
		case LoyaltyPending:
		}
	}
	return balance
}

// LogAction appends a diagnostic record of an activity invocation.
// The row is flushed on the next save even when the command itself fails.
func (o *Order) LogAction(action, result, correlationID string) error {
	if err := o.Validate(); err != nil {
		return err
	}

	entry, err := NewActionLog(
		kernel.NewUUID(),
		action,
		result,
		correlationID,
		time.Now().UTC(),
		len(o.logs),
	)
	if err != nil {
		return err
	}

	o.logs = append(o.logs, entry)
	o.uncommittedLogs = append(o.uncommittedLogs, entry)
	return nil
}

// UncommittedJourneys returns journey entries appended since the last save.
func (o *Order) UncommittedJourneys() []*Journey {
	return o.uncommittedJourneys
}

// UncommittedLogs returns action log entries appended since the last save.
func (o *Order) UncommittedLogs() []*ActionLog {
	return o.uncommittedLogs
}

// MarkCommitted clears the uncommitted audit buffers and records the version
// assigned by the repository. Called by the persistence layer after a
// successful save.
func (o *Order) MarkCommitted(newVersion int) {
	o.version = newVersion
	o.uncommittedJourneys = nil
	o.uncommittedLogs = nil
}

func (o *Order) touch() {
	o.updatedAt = time.Now().UTC()
}
