package saga_test

import (
	"context"
	"sync"
	"time"

	"orderflow/internal/core/application/saga"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// memStore is a process-local stand-in for the database. Aggregates and
// checkpoints are stored as deep copies so a rolled back unit of work never
// leaks partial mutations.
type memStore struct {
	mu          sync.Mutex
	orders      map[string]*order.Order
	checkpoints map[string]*workflow.Checkpoint
	extraLogs   map[string][]*order.ActionLog
}

func newMemStore() *memStore {
	return &memStore{
		orders:      make(map[string]*order.Order),
		checkpoints: make(map[string]*workflow.Checkpoint),
		extraLogs:   make(map[string][]*order.ActionLog),
	}
}

func (s *memStore) putOrder(aggregate *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[aggregate.ID().String()] = cloneOrder(aggregate)
}

func (s *memStore) order(id kernel.UUID) *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[id.String()]
	if !ok {
		return nil
	}
	return cloneOrder(stored)
}

func (s *memStore) putCheckpoint(checkpoint *workflow.Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[checkpoint.WorkflowID()] = cloneCheckpoint(checkpoint)
}

func (s *memStore) checkpoint(workflowID string) *workflow.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.checkpoints[workflowID]
	if !ok {
		return nil
	}
	return cloneCheckpoint(stored)
}

func cloneOrder(o *order.Order) *order.Order {
	var payment *order.Payment
	if p := o.Payment(); p != nil {
		payment = mustRestorePayment(p)
	}

	items := make([]*order.Item, 0, len(o.Items()))
	for _, item := range o.Items() {
		restored, err := order.RestoreItem(item.ID(), item.ProductID(), item.Quantity(), item.UnitPrice())
		if err != nil {
			panic(err)
		}
		items = append(items, restored)
	}

	stocks := make([]*order.Stock, 0, len(o.Stocks()))
	for _, stock := range o.Stocks() {
		restored, err := order.RestoreStock(stock.ID(), stock.ProductID(), stock.Quantity(), stock.Status(), stock.ReferenceID())
		if err != nil {
			panic(err)
		}
		stocks = append(stocks, restored)
	}

	loyalties := make([]*order.Loyalty, 0, len(o.Loyalties()))
	for _, entry := range o.Loyalties() {
		restored, err := order.RestoreLoyalty(entry.ID(), entry.Kind(), entry.Points(), entry.Status(), entry.ReferenceID())
		if err != nil {
			panic(err)
		}
		loyalties = append(loyalties, restored)
	}

	journeys := make([]*order.Journey, 0, len(o.Journeys()))
	for _, journey := range o.Journeys() {
		restored, err := order.RestoreJourney(journey.ID(), journey.FromState(), journey.ToState(), journey.At(), journey.ReferenceID(), journey.Sequence())
		if err != nil {
			panic(err)
		}
		journeys = append(journeys, restored)
	}

	logs := make([]*order.ActionLog, 0, len(o.Logs()))
	for _, entry := range o.Logs() {
		restored, err := order.RestoreActionLog(entry.ID(), entry.Action(), entry.Result(), entry.CorrelationID(), entry.At(), entry.Sequence())
		if err != nil {
			panic(err)
		}
		logs = append(logs, restored)
	}

	restored, err := order.RestoreOrder(
		o.ID(), o.State(), o.Version(), o.CreatedAt(), o.UpdatedAt(),
		items, payment, stocks, loyalties, journeys, logs,
	)
	if err != nil {
		panic(err)
	}
	return restored
}

func mustRestorePayment(p *order.Payment) *order.Payment {
	restored, err := order.RestorePayment(p.ID(), p.Method(), p.Amount(), p.Status(), p.ReferenceID())
	if err != nil {
		panic(err)
	}
	return restored
}

func cloneCheckpoint(c *workflow.Checkpoint) *workflow.Checkpoint {
	restored, err := workflow.RestoreCheckpoint(
		c.WorkflowID(), c.OrderID(), c.Status(), c.StepIndex(),
		c.CompletedSteps(), c.Attempts(), c.LastError(), c.CancelRequested(), c.UpdatedAt(),
	)
	if err != nil {
		panic(err)
	}
	return restored
}

// memUoW implements saga.UoW over the shared store. Writes apply on the repo
// call; Begin, Commit and Rollback are bookkeeping no-ops, which is close
// enough for the engine's load-mutate-save pattern.
type memUoW struct {
	store *memStore
}

func (u *memUoW) Begin(context.Context) error    { return nil }
func (u *memUoW) Commit(context.Context) error   { return nil }
func (u *memUoW) Rollback(context.Context) error { return nil }

func (u *memUoW) OrderRepository() ports.OrderRepository {
	return &memOrderRepository{store: u.store}
}

func (u *memUoW) WorkflowRepository() ports.WorkflowRepository {
	return &memWorkflowRepository{store: u.store}
}

type memUoWFactory struct {
	store *memStore
}

func (f *memUoWFactory) Create() saga.UoW {
	return &memUoW{store: f.store}
}

type memOrderRepository struct {
	store *memStore
}

func (r *memOrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	r.store.putOrder(aggregate)
	return nil
}

func (r *memOrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	stored := r.store.order(id)
	if stored == nil {
		return nil, errs.NewObjectNotFoundError("orderID", id)
	}
	return stored, nil
}

func (r *memOrderRepository) Save(_ context.Context, aggregate *order.Order, expectedVersion int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.orders[aggregate.ID().String()]
	if !ok {
		return errs.NewObjectNotFoundError("orderID", aggregate.ID())
	}
	if stored.Version() != expectedVersion {
		return errs.NewConcurrencyConflictError("order", aggregate.ID(), expectedVersion)
	}

	saved := cloneOrder(aggregate)
	saved.MarkCommitted(expectedVersion + 1)
	r.store.orders[aggregate.ID().String()] = saved
	aggregate.MarkCommitted(expectedVersion + 1)
	return nil
}

func (r *memOrderRepository) GetJourney(_ context.Context, id kernel.UUID) ([]*order.Journey, error) {
	stored := r.store.order(id)
	if stored == nil {
		return nil, errs.NewObjectNotFoundError("orderID", id)
	}
	return stored.Journeys(), nil
}

func (r *memOrderRepository) AppendLog(_ context.Context, id kernel.UUID, logs []*order.ActionLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.extraLogs[id.String()] = append(r.store.extraLogs[id.String()], logs...)
	return nil
}

type memWorkflowRepository struct {
	store *memStore
}

func (r *memWorkflowRepository) Insert(_ context.Context, checkpoint *workflow.Checkpoint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.checkpoints[checkpoint.WorkflowID()]; ok {
		return errs.NewRequestInProgressError(checkpoint.WorkflowID())
	}
	r.store.checkpoints[checkpoint.WorkflowID()] = cloneCheckpoint(checkpoint)
	return nil
}

func (r *memWorkflowRepository) Update(_ context.Context, checkpoint *workflow.Checkpoint) error {
	r.store.putCheckpoint(checkpoint)
	return nil
}

func (r *memWorkflowRepository) Get(_ context.Context, workflowID string) (*workflow.Checkpoint, error) {
	stored := r.store.checkpoint(workflowID)
	if stored == nil {
		return nil, errs.NewObjectNotFoundError("workflowID", workflowID)
	}
	return stored, nil
}

func (r *memWorkflowRepository) RequestCancel(_ context.Context, workflowID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.checkpoints[workflowID]
	if !ok {
		return errs.NewObjectNotFoundError("workflowID", workflowID)
	}
	stored.RequestCancel()
	return nil
}

func (r *memWorkflowRepository) ListResumable(_ context.Context, updatedBefore time.Time, limit int) ([]*workflow.Checkpoint, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var resumable []*workflow.Checkpoint
	for _, stored := range r.store.checkpoints {
		if stored.Status().IsTerminal() {
			continue
		}
		if !stored.UpdatedAt().Before(updatedBefore) {
			continue
		}
		resumable = append(resumable, cloneCheckpoint(stored))
		if limit > 0 && len(resumable) >= limit {
			break
		}
	}
	return resumable, nil
}

// fakeActivities records every remote call and plays back scripted errors per
// operation, front to back. An exhausted script means success.
type fakeActivities struct {
	mu         sync.Mutex
	calls      []string
	scripted   map[string][]error
	lastEarned int
	lastBurned int
}

func newFakeActivities() *fakeActivities {
	return &fakeActivities{scripted: make(map[string][]error)}
}

func (f *fakeActivities) script(op string, errors ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripted[op] = append(f.scripted[op], errors...)
}

func (f *fakeActivities) invoke(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	queue := f.scripted[op]
	if len(queue) == 0 {
		return nil
	}
	f.scripted[op] = queue[1:]
	return queue[0]
}

func (f *fakeActivities) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == op {
			count++
		}
	}
	return count
}

func (f *fakeActivities) Reserve(_ context.Context, _ kernel.UUID, _ kernel.UUID, _ int, _ kernel.ReferenceID) error {
	return f.invoke("Reserve")
}

func (f *fakeActivities) Confirm(_ context.Context, _ kernel.UUID, _ kernel.ReferenceID) error {
	return f.invoke("Confirm")
}

func (f *fakeActivities) Release(_ context.Context, _ kernel.UUID, _ kernel.ReferenceID) error {
	return f.invoke("Release")
}

func (f *fakeActivities) Capture(_ context.Context, _ kernel.UUID, _ kernel.Money, _ kernel.ReferenceID) error {
	return f.invoke("Capture")
}

func (f *fakeActivities) Refund(_ context.Context, _ kernel.UUID, _ kernel.Money, _ kernel.ReferenceID) error {
	return f.invoke("Refund")
}

func (f *fakeActivities) Earn(_ context.Context, _ kernel.UUID, points int, _ kernel.ReferenceID) error {
	f.mu.Lock()
	f.lastEarned = points
	f.mu.Unlock()
	return f.invoke("Earn")
}

func (f *fakeActivities) Burn(_ context.Context, _ kernel.UUID, points int, _ kernel.ReferenceID) error {
	f.mu.Lock()
	f.lastBurned = points
	f.mu.Unlock()
	return f.invoke("Burn")
}

func (f *fakeActivities) Reverse(_ context.Context, _ kernel.UUID, _ kernel.ReferenceID) error {
	return f.invoke("Reverse")
}

func (f *fakeActivities) earned() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastEarned
}

func (f *fakeActivities) burned() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBurned
}
