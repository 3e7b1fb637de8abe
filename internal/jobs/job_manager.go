package jobs

import (
	"fmt"
	"log/slog"

	"orderflow/internal/core/application/saga"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	workflowResumeJob *WorkflowResumeJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	engine *saga.Engine,
	resumeSchedule string,
	resumeBatchSize int,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		workflowResumeJob: NewWorkflowResumeJob(engine, resumeSchedule, resumeBatchSize, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.workflowResumeJob.Start(); err != nil {
		return fmt.Errorf("failed to start workflow resume job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.workflowResumeJob.Stop()
}
