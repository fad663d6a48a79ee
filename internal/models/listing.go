// internal/models/listing.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// CopySaleListing is a one-shot, fixed-capacity sale for one model. Once a
// row exists for a model it is never replaced or removed; only SoldCopies
// moves, monotonically, bounded by TotalCopies.
type CopySaleListing struct {
	ModelID     uint64    `json:"model_id" gorm:"primaryKey;autoIncrement:false"`
	Price       int64     `json:"price" gorm:"not null"`
	TotalCopies int64     `json:"total_copies" gorm:"not null"`
	SoldCopies  int64     `json:"sold_copies" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Model ModelAsset `json:"model,omitempty" gorm:"foreignKey:ModelID"`
}

// SubscriptionListing holds the current rate/period offer for one model.
// Unlike copy listings it may be replaced freely.
type SubscriptionListing struct {
	ModelID       uint64    `json:"model_id" gorm:"primaryKey;autoIncrement:false"`
	RatePerPeriod int64     `json:"rate_per_period" gorm:"not null"`
	PeriodSeconds int64     `json:"period_seconds" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Model ModelAsset `json:"model,omitempty" gorm:"foreignKey:ModelID"`
}

// SubscriptionGrant records a subscriber's paid-up access window for one
// model. A grant is active iff ExpiresAt >= now. Grants lapse; they are
// never deleted.
type SubscriptionGrant struct {
	ModelID      uint64    `json:"model_id" gorm:"primaryKey;autoIncrement:false"`
	SubscriberID uuid.UUID `json:"subscriber_id" gorm:"type:uuid;primaryKey"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Subscriber Account `json:"subscriber,omitempty" gorm:"foreignKey:SubscriberID"`
}

// Active reports whether the grant covers the given instant.
func (g *SubscriptionGrant) Active(now time.Time) bool {
	return !g.ExpiresAt.Before(now)
}
