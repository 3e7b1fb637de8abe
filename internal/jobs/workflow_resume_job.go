package jobs

import (
	"context"
	"log/slog"

	"orderflow/internal/core/application/saga"

	"github.com/robfig/cron/v3"
)

// WorkflowResumeJob periodically scans for workflow runs whose checkpoints
// are not terminal and have no goroutine driving them, and reattaches the
// engine to each. This is what makes runs survive a process restart.
type WorkflowResumeJob struct {
	engine    *saga.Engine
	cron      *cron.Cron
	schedule  string
	batchSize int
	logger    *slog.Logger
}

// NewWorkflowResumeJob creates a job that resumes interrupted workflow runs.
// The schedule is a six-field cron expression; batchSize caps how many runs
// one sweep picks up.
func NewWorkflowResumeJob(engine *saga.Engine, schedule string, batchSize int, logger *slog.Logger) *WorkflowResumeJob {
	return &WorkflowResumeJob{
		engine:    engine,
		cron:      cron.New(cron.WithSeconds()),
		schedule:  schedule,
		batchSize: batchSize,
		logger:    logger.With("component", "workflow_resume_job"),
	}
}

// Start begins the periodic resume sweep.
func (j *WorkflowResumeJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()

		if err := j.engine.Resume(ctx, j.batchSize); err != nil {
			j.logger.ErrorContext(ctx, "Workflow resume sweep failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Workflow resume job started", "schedule", j.schedule)
	return nil
}

// Stop stops the resume sweep.
func (j *WorkflowResumeJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Workflow resume job stopped")
}
