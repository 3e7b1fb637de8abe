package order

import (
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrPaymentIsNotConstructed is returned when a Payment instance was not
	// created through the NewPayment factory method.
	ErrPaymentIsNotConstructed = errors.New("Payment must be created via NewPayment constructor")
)

// PaymentMethod enumerates the accepted payment instruments.
type PaymentMethod int

const (
	UnknownMethod PaymentMethod = iota
	CreditCard
	DebitCard
	BankTransfer
	DigitalWallet
	Cash
)

func getPaymentMethodStrings() map[PaymentMethod]string {
	return map[PaymentMethod]string{
		UnknownMethod: "Unknown",
		CreditCard:    "CreditCard",
		DebitCard:     "DebitCard",
		BankTransfer:  "BankTransfer",
		DigitalWallet: "DigitalWallet",
		Cash:          "Cash",
	}
}

// Validate checks if the PaymentMethod is one of the accepted instruments.
func (m PaymentMethod) Validate() error {
	if m == UnknownMethod {
		return errs.NewValueIsInvalidErrorWithCause(
			"payment method is invalid",
			fmt.Errorf("%d is not a valid payment method", m),
		)
	}
	if _, ok := getPaymentMethodStrings()[m]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"payment method is invalid",
			fmt.Errorf("%d is not a valid payment method", m),
		)
	}
	return nil
}

// String returns the human-readable name of the payment method.
func (m PaymentMethod) String() string {
	if str, ok := getPaymentMethodStrings()[m]; ok {
		return str
	}
	return "Unknown"
}

// PaymentStatus represents the lifecycle of a payment record:
// Pending -> Captured -> Refunded. A refund is a status change on the
// existing record, never a new payment.
type PaymentStatus int

const (
	PaymentPending PaymentStatus = iota
	PaymentCaptured
	PaymentRefunded
)

// String returns the human-readable name of the payment status.
func (s PaymentStatus) String() string {
	switch s {
	case PaymentPending:
		return "Pending"
	case PaymentCaptured:
		return "Captured"
	case PaymentRefunded:
		return "Refunded"
	}
	return "Unknown"
}

// Payment is the single active payment record of an Order. Each order has at
// most one; the reference id ties the record to the idempotent capture call
// made against the payment activity.
type Payment struct {
	id            kernel.UUID
	method        PaymentMethod
	amount        kernel.Money
	status        PaymentStatus
	referenceID   kernel.ReferenceID
	isConstructed bool
}

// NewPayment creates a payment record in Pending status.
func NewPayment(id kernel.UUID, method PaymentMethod, amount kernel.Money, referenceID kernel.ReferenceID) (*Payment, error) {
	payment := &Payment{
		amount:        amount,
		status:        PaymentPending,
		isConstructed: true,
	}

	if err := errors.Join(
		payment.setID(id),
		payment.setMethod(method),
		payment.setReferenceID(referenceID),
	); err != nil {
		return nil, err
	}

	return payment, nil
}

// RestorePayment reconstructs a Payment from persistence, including its status.
func RestorePayment(
	id kernel.UUID,
	method PaymentMethod,
	amount kernel.Money,
	status PaymentStatus,
	referenceID kernel.ReferenceID,
) (*Payment, error) {
	payment, err := NewPayment(id, method, amount, referenceID)
	if err != nil {
		return nil, err
	}
	payment.status = status
	return payment, nil
}

// Validate ensures the Payment instance was properly constructed.
func (p *Payment) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrPaymentIsNotConstructed
	}
	return nil
}

// ID returns the payment record's unique identifier.
func (p *Payment) ID() kernel.UUID {
	return p.id
}

// Method returns the payment instrument.
func (p *Payment) Method() PaymentMethod {
	return p.method
}

// Amount returns the payment amount.
func (p *Payment) Amount() kernel.Money {
	return p.amount
}

// Status returns the payment lifecycle status.
func (p *Payment) Status() PaymentStatus {
	return p.status
}

// ReferenceID returns the idempotency reference of the capture call.
func (p *Payment) ReferenceID() kernel.ReferenceID {
	return p.referenceID
}

// IsCaptured reports whether the payment has been captured and not refunded.
func (p *Payment) IsCaptured() bool {
	return p.status == PaymentCaptured
}

// Capture marks the payment as captured. Only a pending payment can be captured.
func (p *Payment) Capture() error {
	if p.status != PaymentPending {
		return errs.NewValueIsInvalidErrorWithCause(
			"payment status is invalid",
			fmt.Errorf("%s is not a valid status to capture", p.status),
		)
	}
	p.status = PaymentCaptured
	return nil
}

// Refund marks the payment as refunded. Only a captured payment can be refunded.
func (p *Payment) Refund() error {
	if p.status != PaymentCaptured {
		return errs.NewValueIsInvalidErrorWithCause(
			"payment status is invalid",
			fmt.Errorf("%s is not a valid status to refund", p.status),
		)
	}
	p.status = PaymentRefunded
	return nil
}

func (p *Payment) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *Payment) setMethod(method PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}
	p.method = method
	return nil
}

func (p *Payment) setReferenceID(referenceID kernel.ReferenceID) error {
	if err := referenceID.Validate(); err != nil {
		return err
	}
	p.referenceID = referenceID
	return nil
}
