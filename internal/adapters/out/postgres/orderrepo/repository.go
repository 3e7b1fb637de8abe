package orderrepo

import (
	"context"
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order to the database together with its children.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}
	if err := r.appendAudit(ctx, aggregate); err != nil {
		return err
	}

	aggregate.MarkCommitted(aggregate.Version())
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Save persists changes to an existing order using optimistic concurrency.
// The order row only updates while the stored version equals expectedVersion;
// a zero row count means another writer got there first. Children are
// upserted and the uncommitted audit rows are appended in the same call, so
// the surrounding transaction keeps the aggregate and its audit consistent.
func (r *GormOrderRepository) Save(ctx context.Context, aggregate *order.Order, expectedVersion int) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	newVersion := expectedVersion + 1

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, expectedVersion).
		Updates(map[string]any{
			"state":       dto.State,
			"version":     newVersion,
			"total_cents": dto.TotalCents,
			"updated_at":  dto.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewConcurrencyConflictError("order", aggregate.ID().String(), expectedVersion)
	}

	upsert := clause.OnConflict{UpdateAll: true}
	if len(dto.Items) > 0 {
		if err := r.db.WithContext(ctx).Clauses(upsert).Create(&dto.Items).Error; err != nil {
			return err
		}
	}
	if dto.Payment != nil {
		if err := r.db.WithContext(ctx).Clauses(upsert).Create(dto.Payment).Error; err != nil {
			return err
		}
	}
	if len(dto.Stocks) > 0 {
		if err := r.db.WithContext(ctx).Clauses(upsert).Create(&dto.Stocks).Error; err != nil {
			return err
		}
	}
	if len(dto.Loyalties) > 0 {
		if err := r.db.WithContext(ctx).Clauses(upsert).Create(&dto.Loyalties).Error; err != nil {
			return err
		}
	}

	if err := r.appendAudit(ctx, aggregate); err != nil {
		return err
	}

	aggregate.MarkCommitted(newVersion)
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID, fully hydrated with its children and audit
// history.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Preload("Stocks").
		Preload("Loyalties").
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	var journeyRows []JourneyDTO
	if err = r.db.WithContext(ctx).Order("sequence").Find(&journeyRows, "order_id = ?", id.Bytes()).Error; err != nil {
		return nil, err
	}
	var logRows []ActionLogDTO
	if err = r.db.WithContext(ctx).Order("sequence").Find(&logRows, "order_id = ?", id.Bytes()).Error; err != nil {
		return nil, err
	}

	return toDomain(dto, journeyRows, logRows)
}

// GetJourney retrieves the transition audit trail of an order ordered by
// sequence, without loading the rest of the aggregate.
func (r *GormOrderRepository) GetJourney(ctx context.Context, id kernel.UUID) ([]*order.Journey, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var rows []JourneyDTO
	if err := r.db.WithContext(ctx).Order("sequence").Find(&rows, "order_id = ?", id.Bytes()).Error; err != nil {
		return nil, err
	}

	journeys := make([]*order.Journey, 0, len(rows))
	for _, row := range rows {
		journey, err := journeyToDomain(row)
		if err != nil {
			return nil, err
		}
		journeys = append(journeys, journey)
	}
	return journeys, nil
}

// AppendLog persists activity diagnostic rows outside the aggregate save
// path. Used when an activity outcome must be recorded even though the
// surrounding command failed.
func (r *GormOrderRepository) AppendLog(ctx context.Context, id kernel.UUID, logs []*order.ActionLog) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if len(logs) == 0 {
		return nil
	}

	rows := make([]ActionLogDTO, 0, len(logs))
	for _, entry := range logs {
		rows = append(rows, logFromDomain(id, entry))
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// appendAudit flushes the aggregate's uncommitted journey and log rows.
func (r *GormOrderRepository) appendAudit(ctx context.Context, aggregate *order.Order) error {
	if journeys := aggregate.UncommittedJourneys(); len(journeys) > 0 {
		rows := make([]JourneyDTO, 0, len(journeys))
		for _, journey := range journeys {
			rows = append(rows, journeyFromDomain(aggregate.ID(), journey))
		}
		if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
			return err
		}
	}

	if logs := aggregate.UncommittedLogs(); len(logs) > 0 {
		rows := make([]ActionLogDTO, 0, len(logs))
		for _, entry := range logs {
			rows = append(rows, logFromDomain(aggregate.ID(), entry))
		}
		if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
			return err
		}
	}

	return nil
}
