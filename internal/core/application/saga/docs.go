// Package saga orchestrates the order lifecycle as a compensating workflow.
//
// A run drives one order through reserve stock, process payment, loyalty
// accounting, stock confirmation and the Paid/Completed transitions. Each
// forward step has a compensation; when a step fails terminally the completed
// steps are undone in reverse order and the order ends Cancelled. Progress is
// checkpointed after every step so a crashed process resumes where it left
// off, and every activity call carries a deterministic reference id so
// retried calls deduplicate on the remote side.
//
// The Engine guarantees at most one active run per order: the workflow id is
// derived from the order id and claimed with an atomic insert, backed by an
// in-process registry for runs already live in this process.
package saga
