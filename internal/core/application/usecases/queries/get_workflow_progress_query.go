package queries

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/guard"
)

var (
	ErrGetWorkflowProgressQueryIsNotConstructed = errors.New(
		"GetWorkflowProgressQuery must be created via NewGetWorkflowProgressQuery constructor",
	)
	ErrWorkflowIDIsRequired = errors.New("workflow id is required")
)

// GetWorkflowProgressQuery retrieves the progress of one orchestration run:
// its checkpoint plus the activity invocation history of the order.
type GetWorkflowProgressQuery struct { //nolint:recvcheck //using for validation
	workflowID string

	guard guard.ConstructorGuard
}

// NewGetWorkflowProgressQuery creates a query for a workflow's progress.
func NewGetWorkflowProgressQuery(workflowID string) (GetWorkflowProgressQuery, error) {
	if workflowID == "" {
		return GetWorkflowProgressQuery{}, ErrWorkflowIDIsRequired
	}

	return GetWorkflowProgressQuery{
		workflowID: workflowID,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetWorkflowProgressQuery) Validate() error {
	return q.guard.Validate(ErrGetWorkflowProgressQueryIsNotConstructed)
}

// WorkflowID returns the run's identifier.
func (q GetWorkflowProgressQuery) WorkflowID() string {
	return q.workflowID
}

// WorkflowActivityRow is one activity invocation recorded during the run.
type WorkflowActivityRow struct {
	Action   string
	Result   string
	At       time.Time
	Sequence int
}

// GetWorkflowProgressQueryResponse carries the checkpoint fields and the
// activity history of the run.
type GetWorkflowProgressQueryResponse struct {
	WorkflowID      string
	OrderID         kernel.UUID
	Status          workflow.Status
	StepIndex       int
	CompletedSteps  []string
	Attempts        int
	LastError       string
	CancelRequested bool
	UpdatedAt       time.Time
	Activities      []WorkflowActivityRow
}
