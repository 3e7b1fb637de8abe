package guardrepo

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// blockPollInterval is how often a blocking duplicate re-reads the claim row
// while waiting for the first execution to record its outcome.
const blockPollInterval = 100 * time.Millisecond

// GormIdempotencyGuard implements IdempotencyGuard on the claim table.
// Claim relies on the primary key for atomicity: of two concurrent inserts
// for the same key exactly one lands, the other observes the existing row.
type GormIdempotencyGuard struct {
	db   *gorm.DB
	mode ports.WaitMode
}

// NewGormIdempotencyGuard creates a guard bound to the given connection,
// usually the transaction of the surrounding unit of work.
func NewGormIdempotencyGuard(db *gorm.DB, mode ports.WaitMode) *GormIdempotencyGuard {
	return &GormIdempotencyGuard{db: db, mode: mode}
}

// Claim registers the key via insert-if-absent. A zero row count means the
// key is already claimed and the stored row decides between replay, fail-fast
// and blocking.
func (g *GormIdempotencyGuard) Claim(ctx context.Context, key ports.IdempotencyKey) (ports.Claim, error) {
	if err := key.OrderID.Validate(); err != nil {
		return ports.Claim{}, err
	}
	if key.CommandType == "" {
		return ports.Claim{}, errs.NewValueIsRequiredError("commandType")
	}
	if err := key.ReferenceID.Validate(); err != nil {
		return ports.Claim{}, err
	}

	row := ClaimDTO{
		OrderID:     key.OrderID.Bytes(),
		CommandType: key.CommandType,
		ReferenceID: key.ReferenceID.String(),
	}
	result := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return ports.Claim{}, result.Error
	}
	if result.RowsAffected > 0 {
		return ports.Claim{}, nil
	}

	return g.awaitOutcome(ctx, key)
}

// awaitOutcome resolves a duplicate claim: a completed row replays its
// outcome, an in-flight row fails fast or is polled per the guard's mode.
func (g *GormIdempotencyGuard) awaitOutcome(ctx context.Context, key ports.IdempotencyKey) (ports.Claim, error) {
	for {
		var stored ClaimDTO
		err := g.db.WithContext(ctx).
			First(&stored, "order_id = ? AND command_type = ? AND reference_id = ?",
				key.OrderID.Bytes(), key.CommandType, key.ReferenceID.String()).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// The first attempt rolled back between our insert and this
				// read. The key is free again; the caller should retry.
				return ports.Claim{}, errs.NewRequestInProgressError(key.ReferenceID.String())
			}
			return ports.Claim{}, err
		}

		if stored.Completed {
			return ports.Claim{Duplicate: true, Outcome: stored.Outcome}, nil
		}
		if g.mode == ports.FailFast {
			return ports.Claim{}, errs.NewRequestInProgressError(key.ReferenceID.String())
		}

		timer := time.NewTimer(blockPollInterval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ports.Claim{}, ctx.Err()
		}
	}
}

// Complete stores the outcome of the first execution.
func (g *GormIdempotencyGuard) Complete(ctx context.Context, key ports.IdempotencyKey, outcome string) error {
	result := g.db.WithContext(ctx).Model(&ClaimDTO{}).
		Where("order_id = ? AND command_type = ? AND reference_id = ?",
			key.OrderID.Bytes(), key.CommandType, key.ReferenceID.String()).
		Updates(map[string]any{
			"completed": true,
			"outcome":   outcome,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("idempotencyKey", key.ReferenceID.String())
	}
	return nil
}

// Release frees an uncompleted key so a retry with the same reference id can
// execute again.
func (g *GormIdempotencyGuard) Release(ctx context.Context, key ports.IdempotencyKey) error {
	return g.db.WithContext(ctx).
		Where("order_id = ? AND command_type = ? AND reference_id = ? AND completed = false",
			key.OrderID.Bytes(), key.CommandType, key.ReferenceID.String()).
		Delete(&ClaimDTO{}).Error
}
