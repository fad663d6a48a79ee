// internal/services/market_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modelmart/modelmart-backend/internal/models"
)

// MarketService owns sale listings, purchase and subscription settlement,
// and the platform fee configuration. Settlements run in one transaction:
// the listing row is locked FOR UPDATE, counters move, funds move, the event
// is appended — or none of it happens.
type MarketService struct {
	db              *gorm.DB
	registryService *RegistryService
	accessService   *AccessService
	treasuryService *TreasuryService
	eventService    *EventService
}

type ListCopiesRequest struct {
	Price       int64 `json:"price" validate:"required"`
	TotalCopies int64 `json:"total_copies" validate:"required"`
}

type ListSubscriptionRequest struct {
	RatePerPeriod int64 `json:"rate_per_period" validate:"required"`
	PeriodSeconds int64 `json:"period_seconds" validate:"required"`
}

type PaidRequest struct {
	Paid int64 `json:"paid" validate:"required,min=1"`
}

type CopySaleDetails struct {
	ModelID     uint64 `json:"model_id"`
	Price       int64  `json:"price"`
	TotalCopies int64  `json:"total_copies"`
	SoldCopies  int64  `json:"sold_copies"`
}

type FeeConfigView struct {
	FeePercent      int       `json:"fee_percent"`
	FeeRecipientID  uuid.UUID `json:"fee_recipient_id"`
	TreasuryBalance int64     `json:"treasury_balance"`
}

func NewMarketService(db *gorm.DB, registryService *RegistryService, accessService *AccessService, treasuryService *TreasuryService, eventService *EventService) *MarketService {
	return &MarketService{
		db:              db,
		registryService: registryService,
		accessService:   accessService,
		treasuryService: treasuryService,
		eventService:    eventService,
	}
}

// splitFee divides a payment into platform fee and owner payout using
// integer division truncating toward zero. fee + payout == paid always.
func splitFee(paid int64, feePercent int) (fee, payout int64) {
	fee = paid * int64(feePercent) / 100
	payout = paid - fee
	return fee, payout
}

// nextExpiry applies the stacking rule: an active grant extends from its
// current expiry, a lapsed or absent grant starts fresh from now.
func nextExpiry(now time.Time, current *time.Time, periodSeconds int64) time.Time {
	period := time.Duration(periodSeconds) * time.Second
	if current != nil && !current.Before(now) {
		return current.Add(period)
	}
	return now.Add(period)
}

// ListForCopies creates the one-shot copy sale listing for a model. Only the
// owner may list; a model that ever had a copy listing can never be listed
// again.
func (s *MarketService) ListForCopies(callerID uuid.UUID, modelID uint64, req *ListCopiesRequest) (*models.CopySaleListing, error) {
	var listing *models.CopySaleListing

	err := s.db.Transaction(func(tx *gorm.DB) error {
		model, err := lockModelTx(tx, modelID)
		if err != nil {
			return err
		}

		if model.OwnerID != callerID {
			return ErrNotModelOwner
		}

		if req.Price <= 0 {
			return ErrInvalidPrice
		}
		if req.TotalCopies <= 0 {
			return ErrInvalidTotalCopies
		}

		var existing int64
		if err := tx.Model(&models.CopySaleListing{}).
			Where("model_id = ?", modelID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check existing listing: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyListed
		}

		listing = &models.CopySaleListing{
			ModelID:     modelID,
			Price:       req.Price,
			TotalCopies: req.TotalCopies,
			SoldCopies:  0,
		}
		if err := tx.Create(listing).Error; err != nil {
			return fmt.Errorf("failed to create copy listing: %w", err)
		}

		// Synchronize the registry through its own authorized entry point.
		if err := s.registryService.setSaleTypeTx(tx, callerID, modelID, models.SaleTypeCopies); err != nil {
			return err
		}

		return s.eventService.EmitTx(tx, models.EventCopyListed, &modelID, callerID, models.JSONB{
			"model_id":     modelID,
			"price":        req.Price,
			"total_copies": req.TotalCopies,
		})
	})

	if err != nil {
		return nil, err
	}

	return listing, nil
}

// BuyCopy settles the purchase of one copy. The attached payment must equal
// the listed price exactly. Sold-copy increment, fee split, both balance
// movements and the purchase event commit together or not at all.
func (s *MarketService) BuyCopy(buyerID uuid.UUID, modelID uint64, paid int64) (*CopySaleDetails, error) {
	var details *CopySaleDetails

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var listing models.CopySaleListing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&listing, "model_id = ?", modelID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotListed
			}
			return fmt.Errorf("database error: %w", err)
		}

		if listing.SoldCopies >= listing.TotalCopies {
			return ErrSoldOut
		}

		if paid != listing.Price {
			return ErrIncorrectPayment
		}

		var model models.ModelAsset
		if err := tx.First(&model, "id = ?", modelID).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}

		cfg, err := platformConfigTx(tx, false)
		if err != nil {
			return err
		}

		if err := tx.Model(&listing).Update("sold_copies", gorm.Expr("sold_copies + 1")).Error; err != nil {
			return fmt.Errorf("failed to update sold copies: %w", err)
		}

		fee, payout := splitFee(paid, cfg.FeePercent)

		if fee > 0 {
			if err := s.treasuryService.transferTx(tx, buyerID, cfg.FeeRecipientID, fee, models.TransferKindPlatformFee, &modelID, ""); err != nil {
				return err
			}
		}
		if payout > 0 {
			if err := s.treasuryService.transferTx(tx, buyerID, model.OwnerID, payout, models.TransferKindCopySale, &modelID, ""); err != nil {
				return err
			}
		}

		details = &CopySaleDetails{
			ModelID:     modelID,
			Price:       listing.Price,
			TotalCopies: listing.TotalCopies,
			SoldCopies:  listing.SoldCopies + 1,
		}

		return s.eventService.EmitTx(tx, models.EventCopyPurchased, &modelID, buyerID, models.JSONB{
			"model_id":      modelID,
			"buyer":         buyerID.String(),
			"price":         listing.Price,
			"seller":        model.OwnerID.String(),
			"fee_recipient": cfg.FeeRecipientID.String(),
			"fee":           fee,
		})
	})

	if err != nil {
		return nil, err
	}

	return details, nil
}

// ListForSubscription creates or replaces the subscription offer for a
// model. Terms are freely updatable; there is no already-listed guard.
func (s *MarketService) ListForSubscription(callerID uuid.UUID, modelID uint64, req *ListSubscriptionRequest) (*models.SubscriptionListing, error) {
	var listing *models.SubscriptionListing

	err := s.db.Transaction(func(tx *gorm.DB) error {
		model, err := lockModelTx(tx, modelID)
		if err != nil {
			return err
		}

		if model.OwnerID != callerID {
			return ErrNotModelOwner
		}

		if req.RatePerPeriod <= 0 {
			return ErrInvalidPrice
		}
		if req.PeriodSeconds <= 0 {
			return ErrInvalidDuration
		}

		listing = &models.SubscriptionListing{
			ModelID:       modelID,
			RatePerPeriod: req.RatePerPeriod,
			PeriodSeconds: req.PeriodSeconds,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "model_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate_per_period", "period_seconds", "updated_at"}),
		}).Create(listing).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription listing: %w", err)
		}

		if err := s.registryService.setSaleTypeTx(tx, callerID, modelID, models.SaleTypeSubscription); err != nil {
			return err
		}

		return s.eventService.EmitTx(tx, models.EventSubscriptionListed, &modelID, callerID, models.JSONB{
			"model_id":        modelID,
			"rate_per_period": req.RatePerPeriod,
			"period_seconds":  req.PeriodSeconds,
		})
	})

	if err != nil {
		return nil, err
	}

	return listing, nil
}

// Subscribe settles one subscription period. Payment must cover at least the
// listed rate. An active grant stacks a period onto its current expiry; a
// lapsed or absent grant starts from now.
func (s *MarketService) Subscribe(subscriberID uuid.UUID, modelID uint64, paid int64) (*models.SubscriptionGrant, error) {
	var grant *models.SubscriptionGrant

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var listing models.SubscriptionListing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&listing, "model_id = ?", modelID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotListed
			}
			return fmt.Errorf("database error: %w", err)
		}

		if listing.RatePerPeriod <= 0 || listing.PeriodSeconds <= 0 {
			return ErrNotListed
		}

		if paid < listing.RatePerPeriod {
			return ErrIncorrectPayment
		}

		now := time.Now()

		var current *time.Time
		var existing models.SubscriptionGrant
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&existing, "model_id = ? AND subscriber_id = ?", modelID, subscriberID).Error
		switch {
		case err == nil:
			current = &existing.ExpiresAt
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("database error: %w", err)
		}

		expiresAt := nextExpiry(now, current, listing.PeriodSeconds)

		grant = &models.SubscriptionGrant{
			ModelID:      modelID,
			SubscriberID: subscriberID,
			ExpiresAt:    expiresAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "model_id"}, {Name: "subscriber_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"expires_at", "updated_at"}),
		}).Create(grant).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription grant: %w", err)
		}

		var model models.ModelAsset
		if err := tx.First(&model, "id = ?", modelID).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}

		cfg, err := platformConfigTx(tx, false)
		if err != nil {
			return err
		}

		fee, payout := splitFee(paid, cfg.FeePercent)

		if fee > 0 {
			if err := s.treasuryService.transferTx(tx, subscriberID, cfg.FeeRecipientID, fee, models.TransferKindPlatformFee, &modelID, ""); err != nil {
				return err
			}
		}
		if payout > 0 {
			if err := s.treasuryService.transferTx(tx, subscriberID, model.OwnerID, payout, models.TransferKindSubscription, &modelID, ""); err != nil {
				return err
			}
		}

		return s.eventService.EmitTx(tx, models.EventSubscriptionGranted, &modelID, subscriberID, models.JSONB{
			"model_id":   modelID,
			"subscriber": subscriberID.String(),
			"expires_at": expiresAt,
		})
	})

	if err != nil {
		return nil, err
	}

	return grant, nil
}

// CheckSubscription reports whether the subscriber's grant covers now.
func (s *MarketService) CheckSubscription(modelID uint64, subscriberID uuid.UUID) (bool, error) {
	var grant models.SubscriptionGrant
	if err := s.db.First(&grant, "model_id = ? AND subscriber_id = ?", modelID, subscriberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("database error: %w", err)
	}
	return grant.Active(time.Now()), nil
}

// GetCopySaleDetails returns the copy listing's price and counters.
func (s *MarketService) GetCopySaleDetails(modelID uint64) (*CopySaleDetails, error) {
	var listing models.CopySaleListing
	if err := s.db.First(&listing, "model_id = ?", modelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotListed
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &CopySaleDetails{
		ModelID:     listing.ModelID,
		Price:       listing.Price,
		TotalCopies: listing.TotalCopies,
		SoldCopies:  listing.SoldCopies,
	}, nil
}

// GetSubscriptionListing returns the current subscription terms.
func (s *MarketService) GetSubscriptionListing(modelID uint64) (*models.SubscriptionListing, error) {
	var listing models.SubscriptionListing
	if err := s.db.First(&listing, "model_id = ?", modelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotListed
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &listing, nil
}

// SetFeePercent updates the platform's cut. Admin only; values above 100 are
// rejected.
func (s *MarketService) SetFeePercent(callerID uuid.UUID, percent int) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidFeePercent
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		cfg, err := s.accessService.requireAdminTx(tx, callerID)
		if err != nil {
			return err
		}

		if cfg.FeePercent == percent {
			return nil
		}

		oldPercent := cfg.FeePercent
		if err := tx.Model(cfg).Update("fee_percent", percent).Error; err != nil {
			return fmt.Errorf("failed to update fee percent: %w", err)
		}

		return s.eventService.EmitTx(tx, models.EventFeePercentChanged, nil, callerID, models.JSONB{
			"old_percent": oldPercent,
			"new_percent": percent,
		})
	})
}

// SetFeeRecipient points the platform's cut at a different account. Admin
// only; the recipient must be a real account.
func (s *MarketService) SetFeeRecipient(callerID, recipientID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return ErrZeroRecipient
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		cfg, err := s.accessService.requireAdminTx(tx, callerID)
		if err != nil {
			return err
		}

		var account models.Account
		if err := tx.First(&account, "id = ?", recipientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrZeroRecipient
			}
			return fmt.Errorf("database error: %w", err)
		}

		if cfg.FeeRecipientID == recipientID {
			return nil
		}

		oldRecipient := cfg.FeeRecipientID
		if err := tx.Model(cfg).Update("fee_recipient_id", recipientID).Error; err != nil {
			return fmt.Errorf("failed to update fee recipient: %w", err)
		}

		return s.eventService.EmitTx(tx, models.EventFeeRecipientChanged, nil, callerID, models.JSONB{
			"old_recipient": oldRecipient.String(),
			"new_recipient": recipientID.String(),
		})
	})
}

// WithdrawFees sweeps any ledger-held treasury balance to the fee recipient.
// The settlement path transfers fees immediately, so the treasury normally
// holds nothing; this is the escape hatch for anything routed there anyway.
func (s *MarketService) WithdrawFees(callerID uuid.UUID) (int64, error) {
	var swept int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		cfg, err := s.accessService.requireAdminTx(tx, callerID)
		if err != nil {
			return err
		}

		// With the recipient pointing at the treasury itself the fees
		// already rest where they belong; a sweep would be a self-transfer.
		if cfg.FeeRecipientID == cfg.TreasuryID {
			return ErrNothingToWithdraw
		}

		var treasury models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&treasury, "id = ?", cfg.TreasuryID).Error; err != nil {
			return fmt.Errorf("treasury account missing: %w", err)
		}

		if treasury.Balance <= 0 {
			return ErrNothingToWithdraw
		}

		swept = treasury.Balance
		if err := s.treasuryService.transferTx(tx, cfg.TreasuryID, cfg.FeeRecipientID, swept, models.TransferKindFeeSweep, nil, ""); err != nil {
			return err
		}

		return s.eventService.EmitTx(tx, models.EventFeesWithdrawn, nil, callerID, models.JSONB{
			"amount":    swept,
			"recipient": cfg.FeeRecipientID.String(),
		})
	})

	if err != nil {
		return 0, err
	}

	return swept, nil
}

// GetFeeConfig returns the current fee configuration plus the ledger-held
// treasury balance.
func (s *MarketService) GetFeeConfig() (*FeeConfigView, error) {
	cfg, err := platformConfigTx(s.db, false)
	if err != nil {
		return nil, err
	}

	var treasury models.Account
	if err := s.db.First(&treasury, "id = ?", cfg.TreasuryID).Error; err != nil {
		return nil, fmt.Errorf("treasury account missing: %w", err)
	}

	return &FeeConfigView{
		FeePercent:      cfg.FeePercent,
		FeeRecipientID:  cfg.FeeRecipientID,
		TreasuryBalance: treasury.Balance,
	}, nil
}
