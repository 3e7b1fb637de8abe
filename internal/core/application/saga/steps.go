package saga

import (
	"context"

	"orderflow/internal/core/domain/model/order"
)

// Forward step names, in execution order. They key checkpoints and activity
// reference ids, so they must stay stable across releases.
const (
	StepReserveStock   = "ReserveStock"
	StepProcessPayment = "ProcessPayment"
	StepBurnLoyalty    = "BurnLoyalty"
	StepEarnLoyalty    = "EarnLoyalty"
	StepMarkPaid       = "MarkPaid"
	StepConfirmStock   = "ConfirmStock"
	StepMarkCompleted  = "MarkCompleted"
)

// reserveStockStep places a hold on every order line.
type reserveStockStep struct{ r *run }

func (s reserveStockStep) Name() string { return StepReserveStock }

func (s reserveStockStep) Execute(ctx context.Context) error {
	ref, err := s.r.stepRef(StepReserveStock)
	if err != nil {
		return err
	}

	snapshot, err := s.r.snapshotOrder(ctx)
	if err != nil {
		return err
	}

	live := make(map[string]bool)
	for _, stock := range snapshot.Stocks() {
		if stock.Status() != order.StockReleased {
			live[stock.ProductID().String()] = true
		}
	}

	for _, item := range snapshot.Items() {
		if live[item.ProductID().String()] {
			continue
		}
		if err = s.r.engine.stock.Reserve(ctx, s.r.orderID, item.ProductID(), item.Quantity(), ref); err != nil {
			return err
		}
	}

	return s.r.mutateOrder(ctx, StepReserveStock, func(o *order.Order) error {
		stillLive := make(map[string]bool)
		for _, stock := range o.Stocks() {
			if stock.Status() != order.StockReleased {
				stillLive[stock.ProductID().String()] = true
			}
		}
		for _, item := range o.Items() {
			if stillLive[item.ProductID().String()] {
				continue
			}
			stock, stockErr := order.NewStock(s.r.newID(), item.ProductID(), item.Quantity(), ref)
			if stockErr != nil {
				return stockErr
			}
			if stockErr = o.ReserveStock(stock); stockErr != nil {
				return stockErr
			}
		}
		return nil
	})
}

func (s reserveStockStep) Compensate(ctx context.Context) error {
	ref, err := s.r.undoRef(StepReserveStock)
	if err != nil {
		return err
	}
	if err = s.r.engine.stock.Release(ctx, s.r.orderID, ref); err != nil {
		return err
	}

	return s.r.mutateOrder(ctx, StepReserveStock+"/undo", func(o *order.Order) error {
		return o.ReleaseStock()
	})
}

// processPaymentStep captures the payment recorded at workflow start.
type processPaymentStep struct{ r *run }

func (s processPaymentStep) Name() string { return StepProcessPayment }

func (s processPaymentStep) Execute(ctx context.Context) error {
	ref, err := s.r.stepRef(StepProcessPayment)
	if err != nil {
		return err
	}

	snapshot, err := s.r.snapshotOrder(ctx)
	if err != nil {
		return err
	}
	payment := snapshot.Payment()
	if payment == nil {
		return errMissingPayment
	}
	if payment.IsCaptured() {
		return nil
	}

	if err = s.r.engine.payment.Capture(ctx, s.r.orderID, payment.Amount(), ref); err != nil {
		return err
	}

	return s.r.mutateOrder(ctx, StepProcessPayment, func(o *order.Order) error {
		if o.Payment() != nil && o.Payment().IsCaptured() {
			return nil
		}
		return o.CapturePayment()
	})
}

func (s processPaymentStep) Compensate(ctx context.Context) error {
	ref, err := s.r.undoRef(StepProcessPayment)
	if err != nil {
		return err
	}

	snapshot, err := s.r.snapshotOrder(ctx)
	if err != nil {
		return err
	}
	payment := snapshot.Payment()
	if payment == nil || payment.Status() != order.PaymentCaptured {
		return nil
	}

	if err = s.r.engine.payment.Refund(ctx, s.r.orderID, payment.Amount(), ref); err != nil {
		return err
	}

	return s.r.mutateOrder(ctx, StepProcessPayment+"/undo", func(o *order.Order) error {
		if o.Payment() == nil || o.Payment().Status() != order.PaymentCaptured {
			return nil
		}
		return o.RefundPayment()
	})
}

// burnLoyaltyStep spends the points the buyer asked to redeem. The burn
// request was written as a pending ledger entry at workflow start; no pending
// entry means no burn was requested.
type burnLoyaltyStep struct{ r *run }

func (s burnLoyaltyStep) Name() string { return StepBurnLoyalty }

func (s burnLoyaltyStep) Execute(ctx context.Context) error {
	ref, err := s.r.stepRef(StepBurnLoyalty)
	if err != nil {
		return err
	}

	snapshot, err := s.r.snapshotOrder(ctx)
	if err != nil {
		return err
	}

	var pending *order.Loyalty
	for _, entry := range snapshot.Loyalties() {
		if entry.Kind() == order.LoyaltyBurn && entry.ReferenceID().IsEqual(ref) {
			if entry.Status() == order.LoyaltyApplied {
				return nil
			}
			if entry.Status() == order.LoyaltyPending {
				pending = entry
			}
		}
	}
	if pending == nil {
		return nil
	}

	if err = s.r.engine.loyalty.Burn(ctx, s.r.orderID, pending.Points(), ref); err != nil {
		return err
	}

	return s.r.mutateOrder(ctx, StepBurnLoyalty, func(o *order.Order) error {
		return o.ApplyLoyalty(ref)
	})
}

func (s burnLoyaltyStep) Compensate(ctx context.Context) error {
	return s.r.reverseLoyalty(ctx, StepBurnLoyalty)
}

// earnLoyaltyStep credits the points the order earns per the loyalty policy.
type earnLoyaltyStep struct{ r *run }

func (s earnLoyaltyStep) Name() string { return StepEarnLoyalty }

func (s earnLoyaltyStep) Execute(ctx context.Context) error {
	ref, err := s.r.stepRef(StepEarnLoyalty)
	if err != nil {
		return err
	}

	snapshot, err := s.r.snapshotOrder(ctx)
	if err != nil {
		return err
	}
	for _, entry := range snapshot.Loyalties() {
		if entry.ReferenceID().IsEqual(ref) && entry.Status() == order.LoyaltyApplied {
			return nil
		}
	}

	points := s.r.engine.loyaltyPolicy.PointsFor(snapshot.Total())
	if points == 0 {
		return nil
	}

	if err = s.r.engine.loyalty.Earn(ctx, s.r.orderID, points, ref); err != nil {
		return err
	}

	return s.r.mutateOrder(ctx, StepEarnLoyalty, func(o *order.Order) error {
		for _, entry := range o.Loyalties() {
			if entry.ReferenceID().IsEqual(ref) {
				return o.ApplyLoyalty(ref)
			}
		}
		entry, entryErr := order.NewLoyalty(s.r.newID(), order.LoyaltyEarn, points, ref)
		if entryErr != nil {
			return entryErr
		}
		if entryErr = o.AddLoyalty(entry); entryErr != nil {
			return entryErr
		}
		return o.ApplyLoyalty(ref)
	})
}

func (s earnLoyaltyStep) Compensate(ctx context.Context) error {
	return s.r.reverseLoyalty(ctx, StepEarnLoyalty)
}

// markPaidStep moves the order to Paid once the captured payment covers the
// total.
type markPaidStep struct{ r *run }

func (s markPaidStep) Name() string { return StepMarkPaid }

func (s markPaidStep) Execute(ctx context.Context) error {
	ref, err := s.r.stepRef(StepMarkPaid)
	if err != nil {
		return err
	}

	return s.r.mutateOrder(ctx, StepMarkPaid, func(o *order.Order) error {
		if o.State() == order.Paid {
			return nil
		}
		return o.TransitionTo(order.Paid, ref, nil)
	})
}

func (s markPaidStep) Compensate(ctx context.Context) error {
	ref, err := s.r.undoRef(StepMarkPaid)
	if err != nil {
		return err
	}

	return s.r.mutateOrder(ctx, StepMarkPaid+"/undo", func(o *order.Order) error {
		if o.State() != order.Paid {
			return nil
		}
		return o.TransitionTo(order.Refunded, ref, nil)
	})
}

// confirmStockStep finalizes the reservations before completion.
type confirmStockStep struct{ r *run }

func (s confirmStockStep) Name() string { return StepConfirmStock }

func (s confirmStockStep) Execute(ctx context.Context) error {
	ref, err := s.r.stepRef(StepConfirmStock)
	if err != nil {
		return err
	}

	snapshot, err := s.r.snapshotOrder(ctx)
	if err != nil {
		return err
	}
	if snapshot.AllStockConfirmed() {
		return nil
	}

	if err = s.r.engine.stock.Confirm(ctx, s.r.orderID, ref); err != nil {
		return err
	}

	return s.r.mutateOrder(ctx, StepConfirmStock, func(o *order.Order) error {
		if o.AllStockConfirmed() {
			return nil
		}
		return o.ConfirmStock()
	})
}

func (s confirmStockStep) Compensate(ctx context.Context) error {
	ref, err := s.r.undoRef(StepConfirmStock)
	if err != nil {
		return err
	}
	if err = s.r.engine.stock.Release(ctx, s.r.orderID, ref); err != nil {
		return err
	}

	return s.r.mutateOrder(ctx, StepConfirmStock+"/undo", func(o *order.Order) error {
		return o.ReleaseStock()
	})
}

// markCompletedStep moves the order to Completed. It is the last forward
// step, so its compensation is never invoked.
type markCompletedStep struct{ r *run }

func (s markCompletedStep) Name() string { return StepMarkCompleted }

func (s markCompletedStep) Execute(ctx context.Context) error {
	ref, err := s.r.stepRef(StepMarkCompleted)
	if err != nil {
		return err
	}

	return s.r.mutateOrder(ctx, StepMarkCompleted, func(o *order.Order) error {
		if o.State() == order.Completed {
			return nil
		}
		return o.TransitionTo(order.Completed, ref, nil)
	})
}

func (s markCompletedStep) Compensate(context.Context) error {
	return nil
}
