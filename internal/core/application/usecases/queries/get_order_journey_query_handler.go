package queries

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderJourneyQueryHandler reads an order's transition audit trail from
// the database in sequence order.
type GetOrderJourneyQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderJourneyQueryHandler creates a handler for journey queries.
// Requires a GORM database connection for query execution.
func NewGetOrderJourneyQueryHandler(db *gorm.DB) GetOrderJourneyQueryHandler {
	return GetOrderJourneyQueryHandler{db: db}
}

// Handle executes the query. An order without transitions yields an empty
// slice, not an error.
func (h GetOrderJourneyQueryHandler) Handle(
	ctx context.Context,
	query GetOrderJourneyQuery,
) ([]GetOrderJourneyQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	journeys := make([]GetOrderJourneyQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			from_state,
			to_state,
			at,
			reference_id,
			sequence
		FROM order_journeys
		WHERE order_id = ?
		ORDER BY sequence
	`, query.OrderID().Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var fromState, toState, sequence int
		var at time.Time
		var referenceID string

		if err = rows.Scan(&id, &fromState, &toState, &at, &referenceID, &sequence); err != nil {
			return nil, err
		}

		journeyID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}

		journeys = append(journeys, GetOrderJourneyQueryResponse{
			ID:          journeyID,
			FromState:   order.State(fromState),
			ToState:     order.State(toState),
			At:          at,
			ReferenceID: referenceID,
			Sequence:    sequence,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return journeys, nil
}
