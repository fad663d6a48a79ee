// internal/handlers/model.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modelmart/modelmart-backend/internal/models"
	"github.com/modelmart/modelmart-backend/internal/services"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

type ModelHandler struct {
	registryService *services.RegistryService
	contentService  *services.ContentService
}

func NewModelHandler(registryService *services.RegistryService, contentService *services.ContentService) *ModelHandler {
	return &ModelHandler{
		registryService: registryService,
		contentService:  contentService,
	}
}

// POST /models
func (h *ModelHandler) Register(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RegisterModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	model, err := h.registryService.Register(callerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"model": model,
	})
}

// GET /models
func (h *ModelHandler) Search(c *gin.Context) {
	params := services.ModelSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if ownerStr := c.Query("owner_id"); ownerStr != "" {
		ownerID, err := uuid.Parse(ownerStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid owner ID", nil)
			return
		}
		params.OwnerID = &ownerID
	}

	if saleTypeStr := c.Query("sale_type"); saleTypeStr != "" {
		saleType := models.SaleType(saleTypeStr)
		if !saleType.Valid() {
			utils.BadRequestResponse(c, "Invalid sale type", nil)
			return
		}
		params.SaleType = &saleType
	}

	if tags := c.QueryArray("tag"); len(tags) > 0 {
		params.Tags = tags
	}

	found, total, err := h.registryService.SearchModels(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(found, total, params.PaginationParams))
}

// GET /models/count
func (h *ModelHandler) Count(c *gin.Context) {
	count, err := h.registryService.Count()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count": count,
	})
}

// GET /models/:id
func (h *ModelHandler) Get(c *gin.Context) {
	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	model, err := h.registryService.Get(modelID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"model": model,
	})
}

// GET /models/:id/metadata
//
// Metadata resolution is best effort. A model whose content was never
// uploaded still resolves to a placeholder document.
func (h *ModelHandler) Metadata(c *gin.Context) {
	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	model, err := h.registryService.Get(modelID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	metadata := h.contentService.ResolveMetadata(c.Request.Context(), model.ContentHash)

	utils.SuccessResponse(c, gin.H{
		"model_id": model.ID,
		"metadata": metadata,
	})
}

type updateContentHashRequest struct {
	ContentHash string `json:"content_hash" validate:"required,max=128"`
}

// PUT /models/:id/content-hash
func (h *ModelHandler) UpdateContentHash(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	var req updateContentHashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.registryService.UpdateContentHash(callerID, modelID, req.ContentHash); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"model_id":     modelID,
		"content_hash": req.ContentHash,
	})
}

type setSaleTypeRequest struct {
	SaleType models.SaleType `json:"sale_type" validate:"required"`
}

// PUT /models/:id/sale-type
func (h *ModelHandler) SetSaleType(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	var req setSaleTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if !req.SaleType.Valid() {
		utils.BadRequestResponse(c, "Invalid sale type", nil)
		return
	}

	if err := h.registryService.SetSaleType(callerID, modelID, req.SaleType); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"model_id":  modelID,
		"sale_type": req.SaleType,
	})
}
