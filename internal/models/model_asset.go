// internal/models/model_asset.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ModelAsset is the registry's authoritative record for one registered model.
// IDs are assigned sequentially from 0 and never reused; assets are never
// deleted. ContentHash is unique over the live assignment set only: updating
// an asset's hash frees the old value for another asset.
type ModelAsset struct {
	ID          uint64         `json:"id" gorm:"primaryKey;autoIncrement:false"`
	OwnerID     uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	ContentHash string         `json:"content_hash" gorm:"size:128;not null;uniqueIndex"`
	SaleType    SaleType       `json:"sale_type" gorm:"type:varchar(20);not null;default:'not_for_sale'"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	Metadata    JSONB          `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Relationships
	Owner Account `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// RegistryState is a single row holding the next model ID to assign.
// Registration locks it FOR UPDATE, which serializes ID assignment and the
// content-hash uniqueness check.
type RegistryState struct {
	ID          uint   `gorm:"primaryKey"`
	NextModelID uint64 `gorm:"not null;default:0"`
}
