package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/workflow"
)

// WorkflowRepository defines the persistence contract for workflow
// checkpoints. Insert is atomic insert-if-absent on the workflow id, which is
// what enforces at most one run per order across processes.
type WorkflowRepository interface {
	// Insert persists the checkpoint of a fresh run. Returns a
	// RequestInProgressError when a checkpoint with the same workflow id
	// already exists.
	Insert(ctx context.Context, checkpoint *workflow.Checkpoint) error

	// Update persists the current progress of a run.
	Update(ctx context.Context, checkpoint *workflow.Checkpoint) error

	// Get retrieves a checkpoint by workflow id.
	Get(ctx context.Context, workflowID string) (*workflow.Checkpoint, error)

	// RequestCancel sets the cancel flag on a stored checkpoint. The running
	// engine observes it at the next step boundary.
	RequestCancel(ctx context.Context, workflowID string) error

	// ListResumable retrieves checkpoints of runs that are not terminal and
	// whose last update precedes updatedBefore, so a restarted process picks
	// up abandoned runs without stealing ones still making progress elsewhere.
	ListResumable(ctx context.Context, updatedBefore time.Time, limit int) ([]*workflow.Checkpoint, error)
}
