package queries

import (
	"context"
	"strings"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetWorkflowProgressQueryHandler reads a workflow checkpoint together with
// the activity log rows recorded for its order.
type GetWorkflowProgressQueryHandler struct {
	db *gorm.DB
}

// NewGetWorkflowProgressQueryHandler creates a handler for workflow progress
// queries. Requires a GORM database connection for query execution.
func NewGetWorkflowProgressQueryHandler(db *gorm.DB) GetWorkflowProgressQueryHandler {
	return GetWorkflowProgressQueryHandler{db: db}
}

// Handle executes the query. Returns ObjectNotFoundError when no run with the
// given workflow id exists.
func (h GetWorkflowProgressQueryHandler) Handle(
	ctx context.Context,
	query GetWorkflowProgressQuery,
) (GetWorkflowProgressQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetWorkflowProgressQueryResponse{}, err
	}

	var row struct {
		OrderID         uuid.UUID
		Status          int
		StepIndex       int
		CompletedSteps  string
		Attempts        int
		LastError       string
		CancelRequested bool
		UpdatedAt       time.Time
	}
	result := h.db.WithContext(ctx).Raw(`
		SELECT
			order_id,
			status,
			step_index,
			completed_steps,
			attempts,
			last_error,
			cancel_requested,
			updated_at
		FROM workflow_checkpoints
		WHERE workflow_id = ?
	`, query.WorkflowID()).Scan(&row)
	if result.Error != nil {
		return GetWorkflowProgressQueryResponse{}, result.Error
	}
	if result.RowsAffected == 0 {
		return GetWorkflowProgressQueryResponse{}, errs.NewObjectNotFoundError("workflowID", query.WorkflowID())
	}

	orderID, err := kernel.UUIDFromBytes(row.OrderID[:])
	if err != nil {
		return GetWorkflowProgressQueryResponse{}, err
	}

	var completedSteps []string
	if row.CompletedSteps != "" {
		completedSteps = strings.Split(row.CompletedSteps, ",")
	}

	resp := GetWorkflowProgressQueryResponse{
		WorkflowID:      query.WorkflowID(),
		OrderID:         orderID,
		Status:          workflow.Status(row.Status),
		StepIndex:       row.StepIndex,
		CompletedSteps:  completedSteps,
		Attempts:        row.Attempts,
		LastError:       row.LastError,
		CancelRequested: row.CancelRequested,
		UpdatedAt:       row.UpdatedAt,
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			action,
			result,
			at,
			sequence
		FROM order_action_logs
		WHERE order_id = ?
		ORDER BY sequence
	`, row.OrderID).Rows()
	if err != nil {
		return GetWorkflowProgressQueryResponse{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var activity WorkflowActivityRow
		if err = rows.Scan(&activity.Action, &activity.Result, &activity.At, &activity.Sequence); err != nil {
			return GetWorkflowProgressQueryResponse{}, err
		}
		resp.Activities = append(resp.Activities, activity)
	}

	if err = rows.Err(); err != nil {
		return GetWorkflowProgressQueryResponse{}, err
	}

	return resp, nil
}
