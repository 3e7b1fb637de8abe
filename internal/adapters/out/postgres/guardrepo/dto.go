// Package guardrepo persists idempotency claims. A claim row is the durable
// record that a command with a given reference id has started or finished;
// the unique index on the key columns is what makes claiming atomic.
package guardrepo

import (
	"time"

	"github.com/google/uuid"
)

// ClaimDTO represents one idempotency claim row. Completed stays false while
// the first execution is in flight and flips to true together with the stored
// outcome.
type ClaimDTO struct {
	OrderID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CommandType string    `gorm:"primaryKey"`
	ReferenceID string    `gorm:"primaryKey"`
	Completed   bool
	Outcome     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the database table name for idempotency claims.
func (ClaimDTO) TableName() string {
	return "idempotency_claims"
}
