// internal/handlers/event.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modelmart/modelmart-backend/internal/models"
	"github.com/modelmart/modelmart-backend/internal/services"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

// EventHandler exposes the ledger event log to indexers and activity feeds.
type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// GET /events
func (h *EventHandler) Search(c *gin.Context) {
	params := services.EventSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if modelStr := c.Query("model_id"); modelStr != "" {
		modelID, err := strconv.ParseUint(modelStr, 10, 64)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid model ID", nil)
			return
		}
		params.ModelID = &modelID
	}

	if actorStr := c.Query("actor_id"); actorStr != "" {
		actorID, err := uuid.Parse(actorStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid actor ID", nil)
			return
		}
		params.ActorID = &actorID
	}

	if typeStr := c.Query("type"); typeStr != "" {
		eventType := models.EventType(typeStr)
		params.Type = &eventType
	}

	events, total, err := h.eventService.SearchEvents(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(events, total, params.PaginationParams))
}

// GET /models/:id/events
func (h *EventHandler) ModelEvents(c *gin.Context) {
	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	events, total, err := h.eventService.ModelEvents(modelID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(events, total, params))
}
