// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. The aggregate spans several tables: the order row itself,
// its lines, payment, stock reservations, loyalty ledger and the append-only
// journey and action log audit tables.
package orderrepo

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// The version column carries the optimistic concurrency token; every Save
// bumps it by one.
type OrderDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	State      int       `gorm:"index"`
	Version    int
	TotalCents int64
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Items     []ItemDTO    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment   *PaymentDTO  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Stocks    []StockDTO   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Loyalties []LoyaltyDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO represents one order line.
type ItemDTO struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"type:uuid;index"`
	ProductID      uuid.UUID `gorm:"type:uuid"`
	Quantity       int
	UnitPriceCents int64
}

// TableName specifies the database table name for order lines.
func (ItemDTO) TableName() string {
	return "order_items"
}

// PaymentDTO represents the order's payment record. At most one row per order
// is live; a refunded row stays for audit until replaced.
type PaymentDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Method      int
	AmountCents int64
	Status      int
	ReferenceID string
}

// TableName specifies the database table name for payments.
func (PaymentDTO) TableName() string {
	return "order_payments"
}

// StockDTO represents a per-item reservation record.
type StockDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid;index"`
	ProductID   uuid.UUID `gorm:"type:uuid"`
	Quantity    int
	Status      int
	ReferenceID string
}

// TableName specifies the database table name for stock reservations.
func (StockDTO) TableName() string {
	return "order_stocks"
}

// LoyaltyDTO represents a loyalty ledger entry.
type LoyaltyDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid;index"`
	Kind        int
	Points      int
	Status      int
	ReferenceID string
}

// TableName specifies the database table name for loyalty entries.
func (LoyaltyDTO) TableName() string {
	return "order_loyalties"
}

// JourneyDTO represents one state transition audit row. Rows are insert-only.
type JourneyDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid;index"`
	FromState   int
	ToState     int
	At          time.Time
	ReferenceID string
	Sequence    int
}

// TableName specifies the database table name for journey audit rows.
func (JourneyDTO) TableName() string {
	return "order_journeys"
}

// ActionLogDTO represents one activity diagnostic row. Rows are insert-only.
type ActionLogDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"type:uuid;index"`
	Action        string
	Result        string
	CorrelationID string
	At            time.Time
	Sequence      int
}

// TableName specifies the database table name for action log rows.
func (ActionLogDTO) TableName() string {
	return "order_action_logs"
}

// fromDomain converts an order domain aggregate to its database representation,
// children included. Journey and log rows are mapped separately because they
// are appended, never re-saved.
func fromDomain(aggregate *order.Order) OrderDTO {
	orderID := aggregate.ID().Bytes()

	items := make([]ItemDTO, 0, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		items = append(items, ItemDTO{
			ID:             item.ID().Bytes(),
			OrderID:        orderID,
			ProductID:      item.ProductID().Bytes(),
			Quantity:       item.Quantity(),
			UnitPriceCents: item.UnitPrice().Cents(),
		})
	}

	var payment *PaymentDTO
	if p := aggregate.Payment(); p != nil {
		payment = &PaymentDTO{
			ID:          p.ID().Bytes(),
			OrderID:     orderID,
			Method:      int(p.Method()),
			AmountCents: p.Amount().Cents(),
			Status:      int(p.Status()),
			ReferenceID: p.ReferenceID().String(),
		}
	}

	stocks := make([]StockDTO, 0, len(aggregate.Stocks()))
	for _, stock := range aggregate.Stocks() {
		stocks = append(stocks, StockDTO{
			ID:          stock.ID().Bytes(),
			OrderID:     orderID,
			ProductID:   stock.ProductID().Bytes(),
			Quantity:    stock.Quantity(),
			Status:      int(stock.Status()),
			ReferenceID: stock.ReferenceID().String(),
		})
	}

	loyalties := make([]LoyaltyDTO, 0, len(aggregate.Loyalties()))
	for _, entry := range aggregate.Loyalties() {
		loyalties = append(loyalties, LoyaltyDTO{
			ID:          entry.ID().Bytes(),
			OrderID:     orderID,
			Kind:        int(entry.Kind()),
			Points:      entry.Points(),
			Status:      int(entry.Status()),
			ReferenceID: entry.ReferenceID().String(),
		})
	}

	return OrderDTO{
		ID:         orderID,
		State:      int(aggregate.State()),
		Version:    aggregate.Version(),
		TotalCents: aggregate.Total().Cents(),
		CreatedAt:  aggregate.CreatedAt(),
		UpdatedAt:  aggregate.UpdatedAt(),
		Items:      items,
		Payment:    payment,
		Stocks:     stocks,
		Loyalties:  loyalties,
	}
}

// journeyFromDomain maps one journey audit row.
func journeyFromDomain(orderID kernel.UUID, journey *order.Journey) JourneyDTO {
	return JourneyDTO{
		ID:          journey.ID().Bytes(),
		OrderID:     orderID.Bytes(),
		FromState:   int(journey.FromState()),
		ToState:     int(journey.ToState()),
		At:          journey.At(),
		ReferenceID: journey.ReferenceID().String(),
		Sequence:    journey.Sequence(),
	}
}

// logFromDomain maps one action log row.
func logFromDomain(orderID kernel.UUID, entry *order.ActionLog) ActionLogDTO {
	return ActionLogDTO{
		ID:            entry.ID().Bytes(),
		OrderID:       orderID.Bytes(),
		Action:        entry.Action(),
		Result:        entry.Result(),
		CorrelationID: entry.CorrelationID(),
		At:            entry.At(),
		Sequence:      entry.Sequence(),
	}
}

// toDomain converts the order row and its children back to the domain
// aggregate using the Restore constructors.
func toDomain(dto OrderDTO, journeyRows []JourneyDTO, logRows []ActionLogDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	items := make([]*order.Item, 0, len(dto.Items))
	for _, row := range dto.Items {
		item, itemErr := itemToDomain(row)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	var payment *order.Payment
	if dto.Payment != nil {
		payment, err = paymentToDomain(*dto.Payment)
		if err != nil {
			return nil, err
		}
	}

	stocks := make([]*order.Stock, 0, len(dto.Stocks))
	for _, row := range dto.Stocks {
		stock, stockErr := stockToDomain(row)
		if stockErr != nil {
			return nil, stockErr
		}
		stocks = append(stocks, stock)
	}

	loyalties := make([]*order.Loyalty, 0, len(dto.Loyalties))
	for _, row := range dto.Loyalties {
		entry, loyaltyErr := loyaltyToDomain(row)
		if loyaltyErr != nil {
			return nil, loyaltyErr
		}
		loyalties = append(loyalties, entry)
	}

	journeys := make([]*order.Journey, 0, len(journeyRows))
	for _, row := range journeyRows {
		journey, journeyErr := journeyToDomain(row)
		if journeyErr != nil {
			return nil, journeyErr
		}
		journeys = append(journeys, journey)
	}

	logs := make([]*order.ActionLog, 0, len(logRows))
	for _, row := range logRows {
		entry, logErr := logToDomain(row)
		if logErr != nil {
			return nil, logErr
		}
		logs = append(logs, entry)
	}

	return order.RestoreOrder(
		id, order.State(dto.State), dto.Version, dto.CreatedAt, dto.UpdatedAt,
		items, payment, stocks, loyalties, journeys, logs,
	)
}

func itemToDomain(row ItemDTO) (*order.Item, error) {
	id, err := kernel.UUIDFromBytes(row.ID[:])
	if err != nil {
		return nil, err
	}
	productID, err := kernel.UUIDFromBytes(row.ProductID[:])
	if err != nil {
		return nil, err
	}
	unitPrice, err := kernel.NewMoney(row.UnitPriceCents)
	if err != nil {
		return nil, err
	}
	return order.RestoreItem(id, productID, row.Quantity, unitPrice)
}

func paymentToDomain(row PaymentDTO) (*order.Payment, error) {
	id, err := kernel.UUIDFromBytes(row.ID[:])
	if err != nil {
		return nil, err
	}
	amount, err := kernel.NewMoney(row.AmountCents)
	if err != nil {
		return nil, err
	}
	referenceID, err := kernel.NewReferenceID(row.ReferenceID)
	if err != nil {
		return nil, err
	}
	return order.RestorePayment(id, order.PaymentMethod(row.Method), amount, order.PaymentStatus(row.Status), referenceID)
}

func stockToDomain(row StockDTO) (*order.Stock, error) {
	id, err := kernel.UUIDFromBytes(row.ID[:])
	if err != nil {
		return nil, err
	}
	productID, err := kernel.UUIDFromBytes(row.ProductID[:])
	if err != nil {
		return nil, err
	}
	referenceID, err := kernel.NewReferenceID(row.ReferenceID)
	if err != nil {
		return nil, err
	}
	return order.RestoreStock(id, productID, row.Quantity, order.StockStatus(row.Status), referenceID)
}

func loyaltyToDomain(row LoyaltyDTO) (*order.Loyalty, error) {
	id, err := kernel.UUIDFromBytes(row.ID[:])
	if err != nil {
		return nil, err
	}
	referenceID, err := kernel.NewReferenceID(row.ReferenceID)
	if err != nil {
		return nil, err
	}
	return order.RestoreLoyalty(id, order.LoyaltyKind(row.Kind), row.Points, order.LoyaltyStatus(row.Status), referenceID)
}

func journeyToDomain(row JourneyDTO) (*order.Journey, error) {
	id, err := kernel.UUIDFromBytes(row.ID[:])
	if err != nil {
		return nil, err
	}
	referenceID, err := kernel.NewReferenceID(row.ReferenceID)
	if err != nil {
		return nil, err
	}
	return order.RestoreJourney(id, order.State(row.FromState), order.State(row.ToState), row.At, referenceID, row.Sequence)
}

func logToDomain(row ActionLogDTO) (*order.ActionLog, error) {
	id, err := kernel.UUIDFromBytes(row.ID[:])
	if err != nil {
		return nil, err
	}
	return order.RestoreActionLog(id, row.Action, row.Result, row.CorrelationID, row.At, row.Sequence)
}
