package order

import (
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrStockIsNotConstructed is returned when a Stock instance was not
	// created through the NewStock factory method.
	ErrStockIsNotConstructed = errors.New("Stock must be created via NewStock constructor")
)

// StockStatus represents the lifecycle of a per-item reservation:
// Reserved before the order is Paid, Confirmed before Completed,
// Released on Cancelled.
type StockStatus int

const (
	StockReserved StockStatus = iota
	StockConfirmed
	StockReleased
)

// String returns the human-readable name of the stock status.
func (s StockStatus) String() string {
	switch s {
	case StockReserved:
		return "Reserved"
	case StockConfirmed:
		return "Confirmed"
	case StockReleased:
		return "Released"
	}
	return "Unknown"
}

// Stock is a per-item reservation record owned by an Order.
type Stock struct {
	id            kernel.UUID
	productID     kernel.UUID
	quantity      int
	status        StockStatus
	referenceID   kernel.ReferenceID
	isConstructed bool
}

// NewStock creates a reservation record in Reserved status.
func NewStock(id kernel.UUID, productID kernel.UUID, quantity int, referenceID kernel.ReferenceID) (*Stock, error) {
	stock := &Stock{
		status:        StockReserved,
		isConstructed: true,
	}

	if err := errors.Join(
		stock.setID(id),
		stock.setProductID(productID),
		stock.setQuantity(quantity),
		stock.setReferenceID(referenceID),
	); err != nil {
		return nil, err
	}

	return stock, nil
}

// RestoreStock reconstructs a Stock from persistence, including its status.
func RestoreStock(
	id kernel.UUID,
	productID kernel.UUID,
	quantity int,
	status StockStatus,
	referenceID kernel.ReferenceID,
) (*Stock, error) {
	stock, err := NewStock(id, productID, quantity, referenceID)
	if err != nil {
		return nil, err
	}
	stock.status = status
	return stock, nil
}

// Validate ensures the Stock instance was properly constructed.
func (s *Stock) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrStockIsNotConstructed
	}
	return nil
}

// ID returns the reservation record's unique identifier.
func (s *Stock) ID() kernel.UUID {
	return s.id
}

// ProductID returns the reserved product's identifier.
func (s *Stock) ProductID() kernel.UUID {
	return s.productID
}

// Quantity returns the reserved quantity.
func (s *Stock) Quantity() int {
	return s.quantity
}

// Status returns the reservation lifecycle status.
func (s *Stock) Status() StockStatus {
	return s.status
}

// ReferenceID returns the idempotency reference of the reserve call.
func (s *Stock) ReferenceID() kernel.ReferenceID {
	return s.referenceID
}

// Confirm marks the reservation as confirmed. Only a reserved entry can be confirmed.
func (s *Stock) Confirm() error {
	if s.status != StockReserved {
		return errs.NewValueIsInvalidErrorWithCause(
			"stock status is invalid",
			fmt.Errorf("%s is not a valid status to confirm", s.status),
		)
	}
	s.status = StockConfirmed
	return nil
}

// Release marks the reservation as released. Already released entries stay
// released, making the operation idempotent for compensation retries.
func (s *Stock) Release() error {
	s.status = StockReleased
	return nil
}

func (s *Stock) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *Stock) setProductID(productID kernel.UUID) error {
	if err := productID.Validate(); err != nil {
		return err
	}
	s.productID = productID
	return nil
}

func (s *Stock) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"quantity is invalid",
			fmt.Errorf("%d is not greater than 0", quantity),
		)
	}
	s.quantity = quantity
	return nil
}

func (s *Stock) setReferenceID(referenceID kernel.ReferenceID) error {
	if err := referenceID.Validate(); err != nil {
		return err
	}
	s.referenceID = referenceID
	return nil
}
