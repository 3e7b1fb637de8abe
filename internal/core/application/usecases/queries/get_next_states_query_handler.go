package queries

import (
	"context"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
)

// GetNextStatesQueryHandler reads an order's current state and derives the
// reachable states from the transition table.
type GetNextStatesQueryHandler struct {
	db *gorm.DB
}

// NewGetNextStatesQueryHandler creates a handler for next-state queries.
// Requires a GORM database connection for query execution.
func NewGetNextStatesQueryHandler(db *gorm.DB) GetNextStatesQueryHandler {
	return GetNextStatesQueryHandler{db: db}
}

// Handle executes the query. Returns ObjectNotFoundError when the order does
// not exist.
func (h GetNextStatesQueryHandler) Handle(
	ctx context.Context,
	query GetNextStatesQuery,
) (GetNextStatesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetNextStatesQueryResponse{}, err
	}

	var state int
	result := h.db.WithContext(ctx).Raw(`
		SELECT state
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Scan(&state)
	if result.Error != nil {
		return GetNextStatesQueryResponse{}, result.Error
	}
	if result.RowsAffected == 0 {
		return GetNextStatesQueryResponse{}, errs.NewObjectNotFoundError("orderID", query.OrderID().String())
	}

	current := order.State(state)
	if err := current.Validate(); err != nil {
		return GetNextStatesQueryResponse{}, err
	}

	return GetNextStatesQueryResponse{
		Current: current,
		Next:    current.NextStates(),
	}, nil
}
