// Package workflowrepo persists workflow checkpoints. The workflow id primary
// key doubles as the cross-process run lock: inserting an existing id fails,
// which is how at most one run per order is enforced.
package workflowrepo

import (
	"strings"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"

	"github.com/google/uuid"
)

// CheckpointDTO represents one workflow checkpoint row. Completed step names
// are stored comma-joined; step names never contain commas.
type CheckpointDTO struct {
	WorkflowID      string    `gorm:"primaryKey"`
	OrderID         uuid.UUID `gorm:"type:uuid;index"`
	Status          int       `gorm:"index"`
	StepIndex       int
	CompletedSteps  string
	Attempts        int
	LastError       string
	CancelRequested bool
	UpdatedAt       time.Time
}

// TableName specifies the database table name for workflow checkpoints.
func (CheckpointDTO) TableName() string {
	return "workflow_checkpoints"
}

// fromDomain converts a checkpoint to its database representation.
func fromDomain(checkpoint *workflow.Checkpoint) CheckpointDTO {
	return CheckpointDTO{
		WorkflowID:      checkpoint.WorkflowID(),
		OrderID:         checkpoint.OrderID().Bytes(),
		Status:          int(checkpoint.Status()),
		StepIndex:       checkpoint.StepIndex(),
		CompletedSteps:  strings.Join(checkpoint.CompletedSteps(), ","),
		Attempts:        checkpoint.Attempts(),
		LastError:       checkpoint.LastError(),
		CancelRequested: checkpoint.CancelRequested(),
		UpdatedAt:       checkpoint.UpdatedAt(),
	}
}

// toDomain converts a database row back to the domain checkpoint.
func toDomain(dto CheckpointDTO) (*workflow.Checkpoint, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	var completedSteps []string
	if dto.CompletedSteps != "" {
		completedSteps = strings.Split(dto.CompletedSteps, ",")
	}

	return workflow.RestoreCheckpoint(
		dto.WorkflowID, orderID, workflow.Status(dto.Status), dto.StepIndex,
		completedSteps, dto.Attempts, dto.LastError, dto.CancelRequested, dto.UpdatedAt,
	)
}
