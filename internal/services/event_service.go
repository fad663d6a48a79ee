// internal/services/event_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/modelmart/modelmart-backend/internal/models"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

// EventService appends ledger events inside the caller's transaction and
// exposes the indexer-facing query surface.
type EventService struct {
	db *gorm.DB
}

type EventSearchParams struct {
	utils.PaginationParams
	ModelID *uint64           `json:"model_id,omitempty"`
	ActorID *uuid.UUID        `json:"actor_id,omitempty"`
	Type    *models.EventType `json:"type,omitempty"`
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

// EmitTx records one event as part of tx. It is only called on success
// paths; if tx rolls back, the event goes with it.
func (s *EventService) EmitTx(tx *gorm.DB, eventType models.EventType, modelID *uint64, actorID uuid.UUID, payload models.JSONB) error {
	event := &models.LedgerEvent{
		Type:    eventType,
		ModelID: modelID,
		ActorID: actorID,
		Payload: payload,
	}

	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}

	logrus.WithFields(logrus.Fields{
		"event":    eventType,
		"model_id": modelID,
		"actor_id": actorID,
	}).Info("Ledger event recorded")

	return nil
}

func (s *EventService) SearchEvents(params EventSearchParams) ([]models.LedgerEvent, int64, error) {
	query := s.db.Model(&models.LedgerEvent{})

	if params.ModelID != nil {
		query = query.Where("model_id = ?", *params.ModelID)
	}

	if params.ActorID != nil {
		query = query.Where("actor_id = ?", *params.ActorID)
	}

	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	allowedSortFields := []string{"created_at", "type", "model_id"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var events []models.LedgerEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch events: %w", err)
	}

	return events, total, nil
}

func (s *EventService) ModelEvents(modelID uint64, params utils.PaginationParams) ([]models.LedgerEvent, int64, error) {
	return s.SearchEvents(EventSearchParams{
		PaginationParams: params,
		ModelID:          &modelID,
	})
}
