// internal/services/treasury_service.go
package services

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modelmart/modelmart-backend/internal/config"
	"github.com/modelmart/modelmart-backend/internal/models"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

// TreasuryService is the payment collaborator: account balances are the
// ledger's money, and a transfer is an atomic debit/credit inside the
// caller's transaction. External money enters through Stripe deposits.
type TreasuryService struct {
	db  *gorm.DB
	cfg *config.Config
}

type DepositRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

type DepositIntentResponse struct {
	ClientSecret string    `json:"client_secret"`
	PaymentID    string    `json:"payment_id"`
	DepositID    uuid.UUID `json:"deposit_id"`
	Status       string    `json:"status"`
}

type ConfirmDepositRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

func NewTreasuryService(db *gorm.DB, cfg *config.Config) *TreasuryService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &TreasuryService{
		db:  db,
		cfg: cfg,
	}
}

// transferTx moves amount from one account to another inside tx. Both rows
// are locked in deterministic ID order so concurrent settlements cannot
// deadlock. A debit below zero fails the whole transaction; nothing is
// retried.
func (s *TreasuryService) transferTx(tx *gorm.DB, fromID, toID uuid.UUID, amount int64, kind models.TransferKind, modelID *uint64, reference string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	first, second := fromID, toID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	accounts := make(map[uuid.UUID]*models.Account, 2)
	for _, id := range []uuid.UUID{first, second} {
		var account models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}
		accounts[id] = &account
	}

	from := accounts[fromID]
	to := accounts[toID]

	if from.Balance < amount {
		return ErrInsufficientFunds
	}

	if err := tx.Model(from).Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	if err := tx.Model(to).Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}

	transfer := &models.Transfer{
		FromID:    fromID,
		ToID:      toID,
		Amount:    amount,
		Kind:      kind,
		ModelID:   modelID,
		Reference: reference,
	}
	if err := tx.Create(transfer).Error; err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}

	return nil
}

// creditTx mints credits into an account (confirmed external deposits only).
func (s *TreasuryService) creditTx(tx *gorm.DB, accountID uuid.UUID, amount int64, reference string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	var account models.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if err := tx.Model(&account).Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}

	transfer := &models.Transfer{
		FromID:    accountID,
		ToID:      accountID,
		Amount:    amount,
		Kind:      models.TransferKindDeposit,
		Reference: reference,
	}
	if err := tx.Create(transfer).Error; err != nil {
		return fmt.Errorf("failed to record deposit transfer: %w", err)
	}

	return nil
}

// CreateDeposit opens a Stripe PaymentIntent for a balance top-up and
// records the pending deposit.
func (s *TreasuryService) CreateDeposit(accountID uuid.UUID, req *DepositRequest) (*DepositIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(s.cfg.Payment.Currency),
	}
	params.AddMetadata("account_id", accountID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	deposit := &models.Deposit{
		AccountID:        accountID,
		Amount:           req.Amount,
		Status:           models.DepositStatusPending,
		PaymentReference: pi.ID,
	}
	if err := s.db.Create(deposit).Error; err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}

	return &DepositIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		DepositID:    deposit.ID,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmDeposit checks the payment intent with Stripe and, on success,
// credits the account balance exactly once.
func (s *TreasuryService) ConfirmDeposit(req *ConfirmDepositRequest) (*models.Deposit, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	var deposit models.Deposit

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&deposit, "payment_reference = ?", req.PaymentIntentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("deposit not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if deposit.Status != models.DepositStatusPending {
			return nil
		}

		switch pi.Status {
		case stripe.PaymentIntentStatusSucceeded:
			now := time.Now()
			if err := s.creditTx(tx, deposit.AccountID, deposit.Amount, pi.ID); err != nil {
				return err
			}
			deposit.Status = models.DepositStatusCompleted
			deposit.ProcessedAt = &now

		case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation,
			stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusProcessing:
			return nil

		default:
			deposit.Status = models.DepositStatusFailed
		}

		if err := tx.Save(&deposit).Error; err != nil {
			return fmt.Errorf("failed to update deposit: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return &deposit, nil
}

// Balance returns the current ledger balance for an account.
func (s *TreasuryService) Balance(accountID uuid.UUID) (int64, error) {
	var account models.Account
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("database error: %w", err)
	}
	return account.Balance, nil
}

// Transfers returns the settlement history touching an account.
func (s *TreasuryService) Transfers(accountID uuid.UUID, params utils.PaginationParams) ([]models.Transfer, int64, error) {
	query := s.db.Model(&models.Transfer{}).
		Where("from_id = ? OR to_id = ?", accountID, accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transfers: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount", "kind"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var transfers []models.Transfer
	if err := query.Find(&transfers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transfers: %w", err)
	}

	return transfers, total, nil
}
