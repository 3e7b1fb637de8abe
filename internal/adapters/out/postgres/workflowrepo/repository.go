package workflowrepo

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWorkflowRepository implements WorkflowRepository using GORM.
type GormWorkflowRepository struct {
	db *gorm.DB
}

// NewGormWorkflowRepository creates a new GORM workflow repository.
func NewGormWorkflowRepository(db *gorm.DB) *GormWorkflowRepository {
	return &GormWorkflowRepository{db: db}
}

// Insert persists the checkpoint of a fresh run. Insert-if-absent on the
// workflow id: losing the race returns RequestInProgressError so the caller
// attaches instead of starting a second run.
func (r *GormWorkflowRepository) Insert(ctx context.Context, checkpoint *workflow.Checkpoint) error {
	if err := checkpoint.Validate(); err != nil {
		return err
	}

	dto := fromDomain(checkpoint)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewRequestInProgressError(checkpoint.WorkflowID())
	}
	return nil
}

// Update persists the current progress of a run.
func (r *GormWorkflowRepository) Update(ctx context.Context, checkpoint *workflow.Checkpoint) error {
	if err := checkpoint.Validate(); err != nil {
		return err
	}

	dto := fromDomain(checkpoint)
	result := r.db.WithContext(ctx).Model(&CheckpointDTO{}).
		Where("workflow_id = ?", dto.WorkflowID).
		Updates(map[string]any{
			"status":           dto.Status,
			"step_index":       dto.StepIndex,
			"completed_steps":  dto.CompletedSteps,
			"attempts":         dto.Attempts,
			"last_error":       dto.LastError,
			"cancel_requested": dto.CancelRequested,
			"updated_at":       dto.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("workflowID", checkpoint.WorkflowID())
	}
	return nil
}

// Get retrieves a checkpoint by workflow id.
func (r *GormWorkflowRepository) Get(ctx context.Context, workflowID string) (*workflow.Checkpoint, error) {
	if workflowID == "" {
		return nil, errs.NewValueIsRequiredError("workflowID")
	}

	var dto CheckpointDTO
	if err := r.db.WithContext(ctx).First(&dto, "workflow_id = ?", workflowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("workflowID", workflowID)
		}
		return nil, err
	}

	return toDomain(dto)
}

// RequestCancel sets the cancel flag on a stored checkpoint. The running
// engine observes it at the next step boundary.
func (r *GormWorkflowRepository) RequestCancel(ctx context.Context, workflowID string) error {
	if workflowID == "" {
		return errs.NewValueIsRequiredError("workflowID")
	}

	result := r.db.WithContext(ctx).Model(&CheckpointDTO{}).
		Where("workflow_id = ?", workflowID).
		Update("cancel_requested", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("workflowID", workflowID)
	}
	return nil
}

// ListResumable retrieves checkpoints of runs that are not terminal and have
// not been updated since updatedBefore, oldest first. Every save touches
// updated_at, so a fresh timestamp means another process is still driving the
// run and it must not be picked up here.
func (r *GormWorkflowRepository) ListResumable(ctx context.Context, updatedBefore time.Time, limit int) ([]*workflow.Checkpoint, error) {
	query := r.db.WithContext(ctx).
		Where("status IN ?", []int{int(workflow.Running), int(workflow.Compensating)}).
		Where("updated_at < ?", updatedBefore).
		Order("updated_at")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []CheckpointDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	checkpoints := make([]*workflow.Checkpoint, 0, len(dtos))
	for _, dto := range dtos {
		checkpoint, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, checkpoint)
	}
	return checkpoints, nil
}
