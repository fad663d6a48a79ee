// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modelmart/modelmart-backend/internal/services"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

type AdminHandler struct {
	accessService *services.AccessService
	marketService *services.MarketService
}

func NewAdminHandler(accessService *services.AccessService, marketService *services.MarketService) *AdminHandler {
	return &AdminHandler{
		accessService: accessService,
		marketService: marketService,
	}
}

// GET /admin/operators
func (h *AdminHandler) ListOperators(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	operators, total, err := h.accessService.ListOperators(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(operators, total, params))
}

type operatorRequest struct {
	AccountID string `json:"account_id" validate:"required,uuid"`
}

// POST /admin/operators
func (h *AdminHandler) AddOperator(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req operatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid account ID", nil)
		return
	}

	if err := h.accessService.AddOperator(callerID, accountID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"operator": accountID,
		"enabled":  true,
	})
}

// DELETE /admin/operators/:id
func (h *AdminHandler) RemoveOperator(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid account ID", nil)
		return
	}

	if err := h.accessService.RemoveOperator(callerID, accountID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"operator": accountID,
		"enabled":  false,
	})
}

type transferAdminRequest struct {
	AccountID string `json:"account_id" validate:"required,uuid"`
}

// POST /admin/transfer
func (h *AdminHandler) TransferAdmin(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req transferAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	newAdminID, err := uuid.Parse(req.AccountID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid account ID", nil)
		return
	}

	if err := h.accessService.TransferAdmin(callerID, newAdminID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"admin": newAdminID,
	})
}

type setFeePercentRequest struct {
	Percent *int `json:"percent" validate:"required"`
}

// PUT /admin/fees/percent
func (h *AdminHandler) SetFeePercent(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req setFeePercentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.marketService.SetFeePercent(callerID, *req.Percent); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"fee_percent": *req.Percent,
	})
}

type setFeeRecipientRequest struct {
	AccountID string `json:"account_id" validate:"required,uuid"`
}

// PUT /admin/fees/recipient
func (h *AdminHandler) SetFeeRecipient(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req setFeeRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	recipientID, err := uuid.Parse(req.AccountID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid account ID", nil)
		return
	}

	if err := h.marketService.SetFeeRecipient(callerID, recipientID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"fee_recipient": recipientID,
	})
}

// POST /admin/fees/withdraw
func (h *AdminHandler) WithdrawFees(c *gin.Context) {
	callerID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	amount, err := h.marketService.WithdrawFees(callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"withdrawn": amount,
	})
}

// GET /admin/stats
func (h *AdminHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.accessService.GetPlatformStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /market/fee-config
func (h *AdminHandler) GetFeeConfig(c *gin.Context) {
	feeConfig, err := h.marketService.GetFeeConfig()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"fee_config": feeConfig,
	})
}
