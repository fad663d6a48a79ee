// internal/services/registry_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modelmart/modelmart-backend/internal/models"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

// RegistryService owns the authoritative model table and the content-hash
// uniqueness claim. Every mutation runs in one transaction: registration
// serializes on the RegistryState row, per-model mutations lock the model
// row FOR UPDATE.
type RegistryService struct {
	db            *gorm.DB
	accessService *AccessService
	eventService  *EventService
}

type RegisterModelRequest struct {
	ContentHash string                 `json:"content_hash" validate:"required,max=128"`
	SaleType    models.SaleType        `json:"sale_type,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type ModelSearchParams struct {
	utils.PaginationParams
	OwnerID  *uuid.UUID       `json:"owner_id,omitempty"`
	SaleType *models.SaleType `json:"sale_type,omitempty"`
	Tags     []string         `json:"tags,omitempty"`
}

func NewRegistryService(db *gorm.DB, accessService *AccessService, eventService *EventService) *RegistryService {
	return &RegistryService{
		db:            db,
		accessService: accessService,
		eventService:  eventService,
	}
}

// Register stores a new model record and returns it with the next sequential
// ID. The content hash must be non-empty and unassigned to any live model.
func (s *RegistryService) Register(callerID uuid.UUID, req *RegisterModelRequest) (*models.ModelAsset, error) {
	if req.ContentHash == "" {
		return nil, ErrEmptyContent
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	saleType := req.SaleType
	if saleType == "" {
		saleType = models.SaleTypeNotForSale
	}
	if !saleType.Valid() {
		return nil, ErrInvalidSaleType
	}

	var model *models.ModelAsset

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var owner models.Account
		if err := tx.First(&owner, "id = ?", callerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		// Serialize ID assignment and the hash-uniqueness check.
		var state models.RegistryState
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&state).Error; err != nil {
			return fmt.Errorf("registry state not initialized: %w", err)
		}

		var hashCount int64
		if err := tx.Model(&models.ModelAsset{}).
			Where("content_hash = ?", req.ContentHash).
			Count(&hashCount).Error; err != nil {
			return fmt.Errorf("failed to check content hash: %w", err)
		}
		if hashCount > 0 {
			return ErrDuplicateContent
		}

		model = &models.ModelAsset{
			ID:          state.NextModelID,
			OwnerID:     callerID,
			ContentHash: req.ContentHash,
			SaleType:    saleType,
			Tags:        req.Tags,
			Metadata:    models.JSONB(req.Metadata),
		}

		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create model: %w", err)
		}

		if err := tx.Model(&state).Update("next_model_id", state.NextModelID+1).Error; err != nil {
			return fmt.Errorf("failed to advance registry state: %w", err)
		}

		return s.eventService.EmitTx(tx, models.EventModelRegistered, &model.ID, callerID, models.JSONB{
			"model_id":     model.ID,
			"owner":        callerID.String(),
			"content_hash": model.ContentHash,
			"sale_type":    string(model.SaleType),
		})
	})

	if err != nil {
		return nil, err
	}

	return model, nil
}

// UpdateContentHash swaps a model's content hash, atomically freeing the old
// value and claiming the new one. Updating to the current hash is a silent
// no-op with no event.
func (s *RegistryService) UpdateContentHash(callerID uuid.UUID, modelID uint64, newHash string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		model, err := lockModelTx(tx, modelID)
		if err != nil {
			return err
		}

		allowed, err := s.accessService.CanManageModelTx(tx, callerID, model)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrNotAuthorized
		}

		if newHash == model.ContentHash {
			return nil
		}

		if newHash == "" {
			return ErrEmptyContent
		}

		var hashCount int64
		if err := tx.Model(&models.ModelAsset{}).
			Where("content_hash = ? AND id <> ?", newHash, modelID).
			Count(&hashCount).Error; err != nil {
			return fmt.Errorf("failed to check content hash: %w", err)
		}
		if hashCount > 0 {
			return ErrDuplicateContent
		}

		oldHash := model.ContentHash
		if err := tx.Model(model).Update("content_hash", newHash).Error; err != nil {
			return fmt.Errorf("failed to update content hash: %w", err)
		}

		return s.eventService.EmitTx(tx, models.EventContentHashUpdated, &modelID, callerID, models.JSONB{
			"model_id": modelID,
			"old_hash": oldHash,
			"new_hash": newHash,
		})
	})
}

// SetSaleType updates the registry's sale-type field. Owner or operator only.
func (s *RegistryService) SetSaleType(callerID uuid.UUID, modelID uint64, newType models.SaleType) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.setSaleTypeTx(tx, callerID, modelID, newType)
	})
}

// setSaleTypeTx is the authorized entry point the marketplace uses to keep
// the registry's sale type synchronized with the active listing; it is the
// only path that writes the field. Setting the current value is a no-op
// without an event.
func (s *RegistryService) setSaleTypeTx(tx *gorm.DB, callerID uuid.UUID, modelID uint64, newType models.SaleType) error {
	if !newType.Valid() {
		return ErrInvalidSaleType
	}

	model, err := lockModelTx(tx, modelID)
	if err != nil {
		return err
	}

	allowed, err := s.accessService.CanManageModelTx(tx, callerID, model)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotAuthorized
	}

	if model.SaleType == newType {
		return nil
	}

	oldType := model.SaleType
	if err := tx.Model(model).Update("sale_type", newType).Error; err != nil {
		return fmt.Errorf("failed to update sale type: %w", err)
	}

	return s.eventService.EmitTx(tx, models.EventSaleTypeChanged, &modelID, callerID, models.JSONB{
		"model_id": modelID,
		"old_type": string(oldType),
		"new_type": string(newType),
	})
}

// lockModelTx fetches a model row FOR UPDATE, returning ErrModelNotFound for
// unknown IDs.
func lockModelTx(tx *gorm.DB, modelID uint64) (*models.ModelAsset, error) {
	var model models.ModelAsset
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", modelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &model, nil
}

// Get returns the model record or ErrModelNotFound.
func (s *RegistryService) Get(modelID uint64) (*models.ModelAsset, error) {
	var model models.ModelAsset
	if err := s.db.Preload("Owner").First(&model, "id = ?", modelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &model, nil
}

// Count returns the total number of models ever registered, which is also
// the next ID to be assigned.
func (s *RegistryService) Count() (uint64, error) {
	var state models.RegistryState
	if err := s.db.First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read registry state: %w", err)
	}
	return state.NextModelID, nil
}

func (s *RegistryService) SearchModels(params ModelSearchParams) ([]models.ModelAsset, int64, error) {
	query := s.db.Model(&models.ModelAsset{}).Preload("Owner")

	if params.OwnerID != nil {
		query = query.Where("owner_id = ?", *params.OwnerID)
	}

	if params.SaleType != nil {
		query = query.Where("sale_type = ?", *params.SaleType)
	}

	if len(params.Tags) > 0 {
		query = query.Where("tags && ?", pq.Array(params.Tags))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count models: %w", err)
	}

	allowedSortFields := []string{"id", "created_at", "updated_at", "sale_type"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var assets []models.ModelAsset
	if err := query.Find(&assets).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch models: %w", err)
	}

	return assets, total, nil
}
