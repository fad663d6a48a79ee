// internal/models/ledger.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// PlatformConfig is the single admin-mutable row carrying the platform
// administrator identity and the fee split configuration. Mutations lock it
// FOR UPDATE; settlements read it inside their transaction.
type PlatformConfig struct {
	ID             uint      `json:"-" gorm:"primaryKey"`
	AdminID        uuid.UUID `json:"admin_id" gorm:"type:uuid;not null"`
	FeePercent     int       `json:"fee_percent" gorm:"not null;default:0"`
	FeeRecipientID uuid.UUID `json:"fee_recipient_id" gorm:"type:uuid;not null"`
	TreasuryID     uuid.UUID `json:"treasury_id" gorm:"type:uuid;not null"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Operator is an identity whitelisted by the administrator to act on behalf
// of any model owner for metadata and sale-type mutations.
type Operator struct {
	AccountID uuid.UUID `json:"account_id" gorm:"type:uuid;primaryKey"`
	AddedBy   uuid.UUID `json:"added_by" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"created_at"`

	Account Account `json:"account,omitempty" gorm:"foreignKey:AccountID"`
}

// LedgerEvent is the indexer-facing record of a committed state change.
// Events are written in the same transaction as the mutation they describe,
// only on success paths; no-ops and failures write nothing.
type LedgerEvent struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Type      EventType `json:"type" gorm:"type:varchar(40);not null;index"`
	ModelID   *uint64   `json:"model_id" gorm:"index"`
	ActorID   uuid.UUID `json:"actor_id" gorm:"type:uuid;not null;index"`
	Payload   JSONB     `json:"payload" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// Transfer is the settlement audit row for one balance movement.
type Transfer struct {
	BaseModel
	FromID    uuid.UUID    `json:"from_id" gorm:"type:uuid;not null;index"`
	ToID      uuid.UUID    `json:"to_id" gorm:"type:uuid;not null;index"`
	Amount    int64        `json:"amount" gorm:"not null"`
	Kind      TransferKind `json:"kind" gorm:"type:varchar(20);not null;index"`
	ModelID   *uint64      `json:"model_id" gorm:"index"`
	Reference string       `json:"reference,omitempty" gorm:"size:255"`
}

// Deposit tracks an external top-up (Stripe) that credits a ledger balance
// once confirmed.
type Deposit struct {
	BaseModel
	AccountID        uuid.UUID     `json:"account_id" gorm:"type:uuid;not null;index"`
	Amount           int64         `json:"amount" gorm:"not null"`
	Status           DepositStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentReference string        `json:"payment_reference" gorm:"size:255;index"`
	ProcessedAt      *time.Time    `json:"processed_at"`

	Account Account `json:"account,omitempty" gorm:"foreignKey:AccountID"`
}
