// internal/handlers/market.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modelmart/modelmart-backend/internal/services"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

type MarketHandler struct {
	marketService *services.MarketService
}

func NewMarketHandler(marketService *services.MarketService) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
	}
}

// POST /models/:id/listings/copies
func (h *MarketHandler) ListForCopies(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	var req services.ListCopiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	listing, err := h.marketService.ListForCopies(callerID, modelID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"listing": listing,
	})
}

// GET /models/:id/listings/copies
func (h *MarketHandler) GetCopySaleDetails(c *gin.Context) {
	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	details, err := h.marketService.GetCopySaleDetails(modelID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"listing": details,
	})
}

// POST /models/:id/purchase
func (h *MarketHandler) BuyCopy(c *gin.Context) {
	buyerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	var req services.PaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	details, err := h.marketService.BuyCopy(buyerID, modelID, req.Paid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"purchase": details,
	})
}

// POST /models/:id/listings/subscription
func (h *MarketHandler) ListForSubscription(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	var req services.ListSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	listing, err := h.marketService.ListForSubscription(callerID, modelID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"listing": listing,
	})
}

// GET /models/:id/listings/subscription
func (h *MarketHandler) GetSubscriptionListing(c *gin.Context) {
	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	listing, err := h.marketService.GetSubscriptionListing(modelID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"listing": listing,
	})
}

// POST /models/:id/subscribe
func (h *MarketHandler) Subscribe(c *gin.Context) {
	subscriberID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	var req services.PaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	grant, err := h.marketService.Subscribe(subscriberID, modelID, req.Paid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"grant": grant,
	})
}

// GET /models/:id/subscription/:subscriber
func (h *MarketHandler) CheckSubscription(c *gin.Context) {
	modelID, ok := parseModelID(c)
	if !ok {
		return
	}

	subscriberID, err := uuid.Parse(c.Param("subscriber"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid subscriber ID", nil)
		return
	}

	active, err := h.marketService.CheckSubscription(modelID, subscriberID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"model_id":   modelID,
		"subscriber": subscriberID,
		"active":     active,
	})
}
