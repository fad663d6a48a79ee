// internal/handlers/common.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modelmart/modelmart-backend/internal/services"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

// currentAccountID reads the authenticated account from the gin context.
// A false return means the middleware never ran or the token was malformed.
func currentAccountID(c *gin.Context) (uuid.UUID, bool) {
	accountIDStr, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		return uuid.Nil, false
	}

	accountID, err := uuid.Parse(accountIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return accountID, true
}

func parseModelID(c *gin.Context) (uint64, bool) {
	modelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid model ID", nil)
		return 0, false
	}
	return modelID, true
}

// respondServiceError maps service sentinel errors onto HTTP responses.
// Anything unrecognized is treated as an internal error.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotAuthorized),
		errors.Is(err, services.ErrNotModelOwner):
		utils.ForbiddenResponse(c, err.Error())

	case errors.Is(err, services.ErrNotAdmin):
		utils.ForbiddenResponse(c, err.Error())

	case errors.Is(err, services.ErrModelNotFound),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrNotListed):
		utils.NotFoundResponse(c, err.Error())

	case errors.Is(err, services.ErrDuplicateContent),
		errors.Is(err, services.ErrAlreadyListed):
		utils.ConflictResponse(c, err.Error())

	case errors.Is(err, services.ErrSoldOut),
		errors.Is(err, services.ErrNothingToWithdraw):
		utils.UnprocessableResponse(c, "UNPROCESSABLE", err.Error())

	case errors.Is(err, services.ErrIncorrectPayment),
		errors.Is(err, services.ErrInsufficientFunds):
		utils.ErrorResponse(c, http.StatusPaymentRequired, "PAYMENT_REQUIRED", err.Error(), nil)

	case errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrInvalidSaleType),
		errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrInvalidTotalCopies),
		errors.Is(err, services.ErrInvalidDuration),
		errors.Is(err, services.ErrInvalidFeePercent),
		errors.Is(err, services.ErrZeroRecipient),
		errors.Is(err, services.ErrInvalidAmount):
		utils.BadRequestResponse(c, err.Error(), nil)

	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
