package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// DefaultStepTimeout bounds a single activity call when no timeout is
// configured.
const DefaultStepTimeout = 30 * time.Second

var errMissingPayment = errors.New("order has no payment record")

// LoyaltyPolicy computes how many points an order earns.
type LoyaltyPolicy interface {
	PointsFor(amount kernel.Money) int
}

// Config tunes the engine. Zero fields fall back to defaults.
type Config struct {
	Retry         RetryPolicy
	StepTimeout   time.Duration
	PaymentMethod order.PaymentMethod

	// ResumeStaleAfter is how long a checkpoint must go without an update
	// before Resume considers its run abandoned. A live run touches its
	// checkpoint at every step boundary and retry, so the threshold must
	// exceed the longest quiet interval between saves.
	ResumeStaleAfter time.Duration
}

// StartParams carries the per-order inputs of a run.
type StartParams struct {
	// BurnPoints is how many loyalty points the buyer asked to redeem.
	// Zero skips the burn step.
	BurnPoints int
}

// Engine runs order workflows. One Engine serves the whole process; runs for
// different orders execute in parallel, runs for the same order never do.
type Engine struct {
	uowFactory       UoWFactory
	stock            ports.StockActivity
	payment          ports.PaymentActivity
	loyalty          ports.LoyaltyActivity
	loyaltyPolicy    LoyaltyPolicy
	retry            RetryPolicy
	stepTimeout      time.Duration
	paymentMethod    order.PaymentMethod
	resumeStaleAfter time.Duration
	logger           *slog.Logger

	rootCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	running map[string]struct{}
}

// run is the per-workflow execution context shared by the steps.
type run struct {
	engine  *Engine
	orderID kernel.UUID

	workflowID string
}

// NewEngine creates a workflow engine.
func NewEngine(
	uowFactory UoWFactory,
	stock ports.StockActivity,
	payment ports.PaymentActivity,
	loyalty ports.LoyaltyActivity,
	loyaltyPolicy LoyaltyPolicy,
	logger *slog.Logger,
	cfg Config,
) (*Engine, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if stock == nil || payment == nil || loyalty == nil {
		return nil, errs.NewValueIsRequiredError("activities")
	}
	if loyaltyPolicy == nil {
		return nil, errs.NewValueIsRequiredError("loyaltyPolicy")
	}
	if logger == nil {
		logger = slog.Default()
	}

	stepTimeout := cfg.StepTimeout
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}
	paymentMethod := cfg.PaymentMethod
	if paymentMethod == order.UnknownMethod {
		paymentMethod = order.CreditCard
	}

	retry := cfg.Retry.normalized()
	resumeStaleAfter := cfg.ResumeStaleAfter
	if resumeStaleAfter <= 0 {
		// A live run is quiet for at most one backoff plus one step timeout
		// between checkpoint saves; double it for scheduling slack.
		resumeStaleAfter = 2 * (retry.MaxBackoff + stepTimeout)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	return &Engine{
		uowFactory:       uowFactory,
		stock:            stock,
		payment:          payment,
		loyalty:          loyalty,
		loyaltyPolicy:    loyaltyPolicy,
		retry:            retry,
		stepTimeout:      stepTimeout,
		paymentMethod:    paymentMethod,
		resumeStaleAfter: resumeStaleAfter,
		logger:           logger,
		rootCtx:          rootCtx,
		stop:             stop,
		running:          make(map[string]struct{}),
	}, nil
}

// StartOrAttach starts the workflow for an order, or attaches to the run that
// already owns it. The returned workflow id is deterministic for the order.
//
// At-most-one is enforced twice: an in-process registry catches runs live in
// this process, and the atomic checkpoint insert catches runs owned by other
// processes.
func (e *Engine) StartOrAttach(ctx context.Context, orderID kernel.UUID, params StartParams) (string, error) {
	if err := orderID.Validate(); err != nil {
		return "", err
	}
	workflowID := workflow.IDForOrder(orderID)

	e.mu.Lock()
	if _, ok := e.running[workflowID]; ok {
		e.mu.Unlock()
		return workflowID, nil
	}
	e.running[workflowID] = struct{}{}
	e.mu.Unlock()

	spawned, err := e.setUp(ctx, orderID, workflowID, params)
	if err != nil || !spawned {
		e.mu.Lock()
		delete(e.running, workflowID)
		e.mu.Unlock()
		return workflowID, err
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.running, workflowID)
			e.mu.Unlock()
		}()
		e.runWorkflow(&run{engine: e, orderID: orderID, workflowID: workflowID})
	}()

	return workflowID, nil
}

// setUp claims the workflow id and prepares the order for a fresh run, or
// decides whether an existing checkpoint should be resumed here. Returns
// whether a run goroutine must be spawned.
func (e *Engine) setUp(ctx context.Context, orderID kernel.UUID, workflowID string, params StartParams) (bool, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	existing, err := uow.WorkflowRepository().Get(ctx, workflowID)
	switch {
	case err == nil:
		// Resume a non-terminal run; a terminal one is left as is.
		return !existing.Status().IsTerminal(), nil
	case errors.Is(err, errs.ErrObjectNotFound):
	default:
		return false, err
	}

	aggregate, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return false, err
	}
	expectedVersion := aggregate.Version()

	if err = e.prepareOrder(aggregate, workflowID, params); err != nil {
		return false, err
	}

	checkpoint, err := workflow.NewCheckpoint(orderID)
	if err != nil {
		return false, err
	}
	if err = uow.WorkflowRepository().Insert(ctx, checkpoint); err != nil {
		if errors.Is(err, errs.ErrRequestInProgress) {
			// Another process claimed the run between our Get and Insert.
			return false, nil
		}
		return false, err
	}

	if err = uow.OrderRepository().Save(ctx, aggregate, expectedVersion); err != nil {
		return false, err
	}
	if err = uow.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// prepareOrder moves a fresh order to Pending and records the payment and
// burn intents the steps will later act on. Durable intents are what let a
// resumed run know what the caller asked for.
func (e *Engine) prepareOrder(aggregate *order.Order, workflowID string, params StartParams) error {
	startRef, err := kernel.NewReferenceID(workflowID + "/start")
	if err != nil {
		return err
	}

	if aggregate.State() == order.Initial {
		if err = aggregate.TransitionTo(order.Pending, startRef, nil); err != nil {
			return err
		}
	}
	if aggregate.State() != order.Pending {
		return errs.NewInvalidTransitionError(
			aggregate.State().String(), order.Pending.String(), "workflow requires a pending order",
		)
	}

	if aggregate.Payment() == nil {
		payment, paymentErr := order.NewPayment(
			kernel.NewUUID(),
			e.paymentMethod,
			aggregate.Total(),
			startRef,
		)
		if paymentErr != nil {
			return paymentErr
		}
		if paymentErr = aggregate.RecordPayment(payment); paymentErr != nil {
			return paymentErr
		}
	}

	if params.BurnPoints > 0 {
		burnRef, refErr := kernel.NewReferenceID(workflowID + "/" + StepBurnLoyalty)
		if refErr != nil {
			return refErr
		}
		entry, entryErr := order.NewLoyalty(kernel.NewUUID(), order.LoyaltyBurn, params.BurnPoints, burnRef)
		if entryErr != nil {
			return entryErr
		}
		if entryErr = aggregate.AddLoyalty(entry); entryErr != nil {
			return entryErr
		}
	}

	return aggregate.LogAction("StartWorkflow", "succeeded", workflowID)
}

// RequestCancel asks a run to stop cooperatively. The flag is observed at the
// next step boundary; in-flight work is never interrupted.
func (e *Engine) RequestCancel(ctx context.Context, workflowID string) error {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.WorkflowRepository().RequestCancel(ctx, workflowID); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

// Resume picks up non-terminal runs left behind by a previous process, e.g.
// after a crash or deploy. Only runs whose checkpoints have gone stale are
// considered, so a sweep in one replica does not steal runs that are still
// making progress in another. Runs already live in this process are skipped.
func (e *Engine) Resume(ctx context.Context, limit int) error {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	cutoff := time.Now().UTC().Add(-e.resumeStaleAfter)
	checkpoints, err := uow.WorkflowRepository().ListResumable(ctx, cutoff, limit)
	_ = uow.Rollback(ctx)
	if err != nil {
		return err
	}

	for _, checkpoint := range checkpoints {
		if _, err = e.StartOrAttach(ctx, checkpoint.OrderID(), StartParams{}); err != nil {
			e.logger.Error("workflow resume failed",
				"workflow_id", checkpoint.WorkflowID(),
				"error", err,
			)
		}
	}
	return nil
}

// Stop cancels the engine's root context and waits for running workflows to
// reach a step boundary, or for ctx to expire.
func (e *Engine) Stop(ctx context.Context) error {
	e.stop()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// forwardSteps returns the forward sequence in execution order.
func (e *Engine) forwardSteps(r *run) []Step {
	return []Step{
		reserveStockStep{r},
		processPaymentStep{r},
		burnLoyaltyStep{r},
		earnLoyaltyStep{r},
		markPaidStep{r},
		confirmStockStep{r},
		markCompletedStep{r},
	}
}

// runWorkflow is the run loop: execute forward steps while Running, unwind
// while Compensating, reload the checkpoint at every boundary so cancel
// requests from other processes are observed.
func (e *Engine) runWorkflow(r *run) {
	ctx := e.rootCtx
	steps := e.forwardSteps(r)
	byName := make(map[string]Step, len(steps))
	for _, step := range steps {
		byName[step.Name()] = step
	}

	for {
		if ctx.Err() != nil {
			return
		}

		checkpoint, err := e.loadCheckpoint(ctx, r.workflowID)
		if err != nil {
			e.logger.Error("workflow checkpoint load failed", "workflow_id", r.workflowID, "error", err)
			return
		}
		if checkpoint.Status().IsTerminal() {
			return
		}

		switch checkpoint.Status() {
		case workflow.Running:
			// A run whose forward steps all finished is completed even when a
			// cancel request landed after the last step; cancellation after
			// completion would unwind a finished order.
			if checkpoint.StepIndex() >= len(steps) {
				checkpoint.MarkCompleted()
				if err = e.saveCheckpoint(ctx, checkpoint); err != nil {
					e.logger.Error("workflow checkpoint save failed", "workflow_id", r.workflowID, "error", err)
				}
				e.logger.Info("workflow completed", "workflow_id", r.workflowID)
				return
			}

			if checkpoint.CancelRequested() {
				checkpoint.StartCompensating(errors.New("cancel requested"))
				if err = e.saveCheckpoint(ctx, checkpoint); err != nil {
					e.logger.Error("workflow checkpoint save failed", "workflow_id", r.workflowID, "error", err)
					return
				}
				continue
			}

			step := steps[checkpoint.StepIndex()]
			if !e.executeForward(ctx, r, checkpoint, step) {
				return
			}

		case workflow.Compensating:
			completed := checkpoint.CompletedSteps()
			if len(completed) == 0 {
				if !e.finalizeCancelled(ctx, r, checkpoint) {
					return
				}
				continue
			}

			name := completed[len(completed)-1]
			step, ok := byName[name]
			if !ok {
				checkpoint.MarkFailed(fmt.Errorf("checkpoint references unknown step %q", name))
				if err = e.saveCheckpoint(ctx, checkpoint); err != nil {
					e.logger.Error("workflow checkpoint save failed", "workflow_id", r.workflowID, "error", err)
				}
				e.logger.Error("workflow checkpoint corrupted", "workflow_id", r.workflowID, "step", name)
				return
			}
			if !e.executeCompensation(ctx, r, checkpoint, step) {
				return
			}

		default:
			return
		}
	}
}

// executeForward runs one forward step with retries. Returns whether the run
// loop should continue.
func (e *Engine) executeForward(ctx context.Context, r *run, checkpoint *workflow.Checkpoint, step Step) bool {
	for {
		attempt := checkpoint.Attempts() + 1
		if !e.sleepBackoff(ctx, attempt) {
			return false
		}

		stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
		err := step.Execute(stepCtx)
		cancel()

		if err == nil {
			if cpErr := checkpoint.StepCompleted(step.Name()); cpErr != nil {
				e.logger.Error("workflow step bookkeeping failed", "workflow_id", r.workflowID, "error", cpErr)
				return false
			}
			if cpErr := e.saveCheckpoint(ctx, checkpoint); cpErr != nil {
				e.logger.Error("workflow checkpoint save failed", "workflow_id", r.workflowID, "error", cpErr)
				return false
			}
			e.logger.Info("workflow step completed", "workflow_id", r.workflowID, "step", step.Name())
			return true
		}

		if ctx.Err() != nil {
			return false
		}

		e.appendFailureLog(ctx, r, step.Name(), err)

		if e.isTerminalFailure(err) {
			e.logger.Warn("workflow step declined, compensating",
				"workflow_id", r.workflowID, "step", step.Name(), "error", err)
			checkpoint.StartCompensating(err)
			return e.saveCheckpointLogged(ctx, r, checkpoint)
		}

		checkpoint.AttemptFailed(err)
		if checkpoint.Attempts() >= e.retry.MaxAttempts {
			e.logger.Warn("workflow step retries exhausted, compensating",
				"workflow_id", r.workflowID, "step", step.Name(), "attempts", checkpoint.Attempts(), "error", err)
			checkpoint.StartCompensating(err)
			return e.saveCheckpointLogged(ctx, r, checkpoint)
		}
		if !e.saveCheckpointLogged(ctx, r, checkpoint) {
			return false
		}
	}
}

// executeCompensation undoes the most recently completed step with retries.
// Exhaustion escalates to manual review instead of being dropped.
func (e *Engine) executeCompensation(ctx context.Context, r *run, checkpoint *workflow.Checkpoint, step Step) bool {
	for {
		attempt := checkpoint.Attempts() + 1
		if !e.sleepBackoff(ctx, attempt) {
			return false
		}

		stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
		err := step.Compensate(stepCtx)
		cancel()

		if err == nil {
			if cpErr := checkpoint.CompensationProgressed(); cpErr != nil {
				e.logger.Error("workflow compensation bookkeeping failed", "workflow_id", r.workflowID, "error", cpErr)
				return false
			}
			if !e.saveCheckpointLogged(ctx, r, checkpoint) {
				return false
			}
			e.logger.Info("workflow step compensated", "workflow_id", r.workflowID, "step", step.Name())
			return true
		}

		if ctx.Err() != nil {
			return false
		}

		e.appendFailureLog(ctx, r, step.Name()+"/undo", err)

		checkpoint.AttemptFailed(err)
		if checkpoint.Attempts() >= e.retry.MaxAttempts {
			checkpoint.MarkManualReview(err)
			e.saveCheckpointLogged(ctx, r, checkpoint)
			e.logger.Error("workflow compensation exhausted, manual review required",
				"workflow_id", r.workflowID, "step", step.Name(), "error", err)
			return false
		}
		if !e.saveCheckpointLogged(ctx, r, checkpoint) {
			return false
		}
	}
}

// finalizeCancelled closes out a fully unwound run: the order moves to
// Cancelled and the checkpoint becomes terminal.
func (e *Engine) finalizeCancelled(ctx context.Context, r *run, checkpoint *workflow.Checkpoint) bool {
	cancelRef, err := kernel.NewReferenceID(r.workflowID + "/cancel")
	if err != nil {
		return false
	}

	err = r.mutateOrder(ctx, "CancelOrder", func(o *order.Order) error {
		switch o.State() {
		case order.Cancelled:
			return nil
		case order.Pending, order.Refunded:
			return o.TransitionTo(order.Cancelled, cancelRef, nil)
		default:
			return errs.NewInvalidTransitionError(
				o.State().String(), order.Cancelled.String(), "unexpected state after compensation",
			)
		}
	})
	if err != nil {
		e.logger.Error("workflow cancellation finalize failed", "workflow_id", r.workflowID, "error", err)
		checkpoint.MarkManualReview(err)
		e.saveCheckpointLogged(ctx, r, checkpoint)
		return false
	}

	checkpoint.MarkCancelled()
	ok := e.saveCheckpointLogged(ctx, r, checkpoint)
	e.logger.Info("workflow cancelled", "workflow_id", r.workflowID)
	return ok
}

// isTerminalFailure reports whether the error is a business refusal that must
// not be retried.
func (e *Engine) isTerminalFailure(err error) bool {
	return errors.Is(err, errs.ErrActivityDeclined) || errors.Is(err, errs.ErrInvalidTransition)
}

// sleepBackoff waits out the retry delay for the given attempt. Returns false
// when the engine is stopping.
func (e *Engine) sleepBackoff(ctx context.Context, attempt int) bool {
	delay := e.retry.Backoff(attempt)
	if delay == 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) loadCheckpoint(ctx context.Context, workflowID string) (*workflow.Checkpoint, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.WorkflowRepository().Get(ctx, workflowID)
}

func (e *Engine) saveCheckpoint(ctx context.Context, checkpoint *workflow.Checkpoint) error {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.WorkflowRepository().Update(ctx, checkpoint); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

func (e *Engine) saveCheckpointLogged(ctx context.Context, r *run, checkpoint *workflow.Checkpoint) bool {
	if err := e.saveCheckpoint(ctx, checkpoint); err != nil {
		e.logger.Error("workflow checkpoint save failed", "workflow_id", r.workflowID, "error", err)
		return false
	}
	return true
}

// appendFailureLog records a failed activity invocation on the order's
// diagnostic log. Best effort; a logging failure never masks the step error.
func (e *Engine) appendFailureLog(ctx context.Context, r *run, action string, cause error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	aggregate, err := uow.OrderRepository().Get(ctx, r.orderID)
	if err != nil {
		return
	}
	if err = aggregate.LogAction(action, "failed: "+cause.Error(), r.workflowID); err != nil {
		return
	}
	if err = uow.OrderRepository().AppendLog(ctx, r.orderID, aggregate.UncommittedLogs()); err != nil {
		return
	}
	_ = uow.Commit(ctx)
}

// Run helpers shared by the steps.

func (r *run) newID() kernel.UUID {
	return kernel.NewUUID()
}

func (r *run) stepRef(stepName string) (kernel.ReferenceID, error) {
	return kernel.NewReferenceID(r.workflowID + "/" + stepName)
}

func (r *run) undoRef(stepName string) (kernel.ReferenceID, error) {
	return kernel.NewReferenceID(r.workflowID + "/" + stepName + "/undo")
}

// snapshotOrder reads the order without holding a transaction open across
// activity calls.
func (r *run) snapshotOrder(ctx context.Context) (*order.Order, error) {
	uow := r.engine.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.OrderRepository().Get(ctx, r.orderID)
}

// mutateOrder applies fn to a freshly loaded aggregate and saves it with
// optimistic concurrency, recording the action on the diagnostic log in the
// same transaction.
func (r *run) mutateOrder(ctx context.Context, action string, fn func(o *order.Order) error) error {
	uow := r.engine.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	aggregate, err := uow.OrderRepository().Get(ctx, r.orderID)
	if err != nil {
		return err
	}
	expectedVersion := aggregate.Version()

	if err = fn(aggregate); err != nil {
		return err
	}
	if err = aggregate.LogAction(action, "succeeded", r.workflowID); err != nil {
		return err
	}

	if err = uow.OrderRepository().Save(ctx, aggregate, expectedVersion); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

// reverseLoyalty undoes the loyalty entry a forward step applied.
func (r *run) reverseLoyalty(ctx context.Context, stepName string) error {
	origRef, err := r.stepRef(stepName)
	if err != nil {
		return err
	}
	undoRef, err := r.undoRef(stepName)
	if err != nil {
		return err
	}

	snapshot, err := r.snapshotOrder(ctx)
	if err != nil {
		return err
	}

	applied := false
	for _, entry := range snapshot.Loyalties() {
		if entry.ReferenceID().IsEqual(undoRef) {
			// Already reversed on a previous attempt.
			return nil
		}
		if entry.ReferenceID().IsEqual(origRef) && entry.Status() == order.LoyaltyApplied {
			applied = true
		}
	}
	if !applied {
		return nil
	}

	if err = r.engine.loyalty.Reverse(ctx, r.orderID, origRef); err != nil {
		return err
	}

	return r.mutateOrder(ctx, stepName+"/undo", func(o *order.Order) error {
		for _, entry := range o.Loyalties() {
			if entry.ReferenceID().IsEqual(undoRef) {
				return nil
			}
		}
		return o.ReverseLoyalty(origRef, undoRef)
	})
}
