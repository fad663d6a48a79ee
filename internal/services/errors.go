// internal/services/errors.go
package services

import "errors"

// Failure kinds surfaced by the registry and marketplace ledger. Every error
// aborts its whole mutation: callers never observe partially applied state
// or partial fund movement. Handlers map these to HTTP codes.
var (
	// Authorization
	ErrNotAuthorized = errors.New("caller is not authorized for this action")
	ErrNotAdmin      = errors.New("caller is not the platform administrator")
	ErrNotModelOwner = errors.New("caller is not the model owner")

	// Validation
	ErrEmptyContent       = errors.New("content hash must not be empty")
	ErrInvalidSaleType    = errors.New("invalid sale type")
	ErrInvalidPrice       = errors.New("price must be positive")
	ErrInvalidTotalCopies = errors.New("total copies must be positive")
	ErrInvalidDuration    = errors.New("period duration must be positive")
	ErrInvalidFeePercent  = errors.New("fee percent must not exceed 100")
	ErrZeroRecipient      = errors.New("fee recipient must be an existing account")
	ErrInvalidAmount      = errors.New("amount must be positive")

	// Conflict
	ErrDuplicateContent = errors.New("content hash is already registered")
	ErrAlreadyListed    = errors.New("model already has a copy sale listing")
	ErrModelNotFound    = errors.New("model not found")
	ErrAccountNotFound  = errors.New("account not found")

	// State
	ErrNotListed         = errors.New("model is not listed")
	ErrSoldOut           = errors.New("all copies have been sold")
	ErrNothingToWithdraw = errors.New("no accumulated fees to withdraw")

	// Payment / transfer
	ErrIncorrectPayment  = errors.New("attached payment does not match the required amount")
	ErrInsufficientFunds = errors.New("insufficient balance for transfer")
)
