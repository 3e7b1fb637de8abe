// Package jobs provides scheduled background tasks for the order service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations required by the workflow engine.
//
// # Available Jobs
//
// 1. WorkflowResumeJob - Periodically scans for interrupted workflow runs and
// reattaches the engine to each, so runs survive process restarts.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(engine, "*/5 * * * * *", 50, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Error Handling
//
// The resume job logs sweep failures and tries again on the next tick; a run
// that is already being driven in-process is skipped by the engine itself.
package jobs
