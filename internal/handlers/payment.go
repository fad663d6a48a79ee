// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/modelmart/modelmart-backend/internal/services"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

type PaymentHandler struct {
	treasuryService *services.TreasuryService
}

func NewPaymentHandler(treasuryService *services.TreasuryService) *PaymentHandler {
	return &PaymentHandler{
		treasuryService: treasuryService,
	}
}

// POST /payments/deposit
func (h *PaymentHandler) CreateDeposit(c *gin.Context) {
	accountID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	intent, err := h.treasuryService.CreateDeposit(accountID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"deposit": intent,
	})
}

// POST /payments/deposit/confirm
func (h *PaymentHandler) ConfirmDeposit(c *gin.Context) {
	var req services.ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	deposit, err := h.treasuryService.ConfirmDeposit(&req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"deposit": deposit,
	})
}

// GET /payments/balance
func (h *PaymentHandler) Balance(c *gin.Context) {
	accountID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	balance, err := h.treasuryService.Balance(accountID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"account_id": accountID,
		"balance":    balance,
	})
}

// GET /payments/transfers
func (h *PaymentHandler) Transfers(c *gin.Context) {
	accountID, ok := currentAccountID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	transfers, total, err := h.treasuryService.Transfers(accountID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(transfers, total, params))
}
