// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Base model for uuid-keyed records
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type AccountRole string

const (
	AccountRoleUser  AccountRole = "user"
	AccountRoleAdmin AccountRole = "admin"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
)

type SaleType string

const (
	SaleTypeNotForSale   SaleType = "not_for_sale"
	SaleTypeCopies       SaleType = "copies"
	SaleTypeSubscription SaleType = "subscription"
)

func (t SaleType) Valid() bool {
	switch t {
	case SaleTypeNotForSale, SaleTypeCopies, SaleTypeSubscription:
		return true
	}
	return false
}

type EventType string

const (
	EventModelRegistered     EventType = "model_registered"
	EventContentHashUpdated  EventType = "content_hash_updated"
	EventSaleTypeChanged     EventType = "sale_type_changed"
	EventCopyListed          EventType = "copy_listed"
	EventCopyPurchased       EventType = "copy_purchased"
	EventSubscriptionListed  EventType = "subscription_listed"
	EventSubscriptionGranted EventType = "subscription_granted"
	EventFeePercentChanged   EventType = "fee_percent_changed"
	EventFeeRecipientChanged EventType = "fee_recipient_changed"
	EventFeesWithdrawn       EventType = "fees_withdrawn"
	EventAdminTransferred    EventType = "admin_transferred"
	EventOperatorAdded       EventType = "operator_added"
	EventOperatorRemoved     EventType = "operator_removed"
)

type TransferKind string

const (
	TransferKindCopySale     TransferKind = "copy_sale"
	TransferKindSubscription TransferKind = "subscription"
	TransferKindPlatformFee  TransferKind = "platform_fee"
	TransferKindFeeSweep     TransferKind = "fee_sweep"
	TransferKindDeposit      TransferKind = "deposit"
)

type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusCompleted DepositStatus = "completed"
	DepositStatusFailed    DepositStatus = "failed"
)
