package queries

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var (
	ErrGetOrderJourneyQueryIsNotConstructed = errors.New(
		"GetOrderJourneyQuery must be created via NewGetOrderJourneyQuery constructor",
	)
)

// GetOrderJourneyQuery retrieves the append-only transition audit trail of an
// order, ordered by sequence.
type GetOrderJourneyQuery struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderJourneyQuery creates a query for an order's journey history.
func NewGetOrderJourneyQuery(orderID kernel.UUID) (GetOrderJourneyQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderJourneyQuery{}, err
	}

	return GetOrderJourneyQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderJourneyQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderJourneyQueryIsNotConstructed)
}

// OrderID returns the order's identifier.
func (q GetOrderJourneyQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetOrderJourneyQueryResponse represents one transition audit record.
type GetOrderJourneyQueryResponse struct {
	ID          kernel.UUID
	FromState   order.State
	ToState     order.State
	At          time.Time
	ReferenceID string
	Sequence    int
}
