// Package workflow provides the durable progress model for order
// orchestration runs.
//
// A Checkpoint records, after every step boundary, how far a run has come:
// its status, the next step to execute, the forward steps already completed,
// the retry count of the current step and whether a cooperative cancel was
// requested. A process that crashes mid-run resumes from its checkpoint
// instead of starting over.
package workflow
