// internal/services/access_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modelmart/modelmart-backend/internal/models"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

// AccessService answers the two authorization questions the ledger asks:
// is the caller the platform administrator, and may the caller manage a
// given model (as its owner or as a whitelisted operator). It also owns the
// operator whitelist and the admin handover.
type AccessService struct {
	db           *gorm.DB
	eventService *EventService
}

func NewAccessService(db *gorm.DB, eventService *EventService) *AccessService {
	return &AccessService{
		db:           db,
		eventService: eventService,
	}
}

// platformConfigTx loads the singleton config row. When forUpdate is set the
// row is locked so concurrent admin mutations serialize.
func platformConfigTx(tx *gorm.DB, forUpdate bool) (*models.PlatformConfig, error) {
	var cfg models.PlatformConfig
	query := tx
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&cfg).Error; err != nil {
		return nil, fmt.Errorf("platform config not initialized: %w", err)
	}
	return &cfg, nil
}

// IsAdminTx reports whether callerID is the current platform administrator.
func (s *AccessService) IsAdminTx(tx *gorm.DB, callerID uuid.UUID) (bool, error) {
	cfg, err := platformConfigTx(tx, false)
	if err != nil {
		return false, err
	}
	return cfg.AdminID == callerID, nil
}

// IsOperatorTx reports whether callerID is on the operator whitelist.
func (s *AccessService) IsOperatorTx(tx *gorm.DB, callerID uuid.UUID) (bool, error) {
	var count int64
	if err := tx.Model(&models.Operator{}).Where("account_id = ?", callerID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check operator whitelist: %w", err)
	}
	return count > 0, nil
}

// CanManageModelTx reports whether callerID may mutate the given model's
// metadata or sale type: the owner always can, as can any whitelisted
// operator acting on the owner's behalf.
func (s *AccessService) CanManageModelTx(tx *gorm.DB, callerID uuid.UUID, model *models.ModelAsset) (bool, error) {
	if model.OwnerID == callerID {
		return true, nil
	}
	return s.IsOperatorTx(tx, callerID)
}

// requireAdminTx returns the locked platform config when callerID is the
// administrator, ErrNotAdmin otherwise.
func (s *AccessService) requireAdminTx(tx *gorm.DB, callerID uuid.UUID) (*models.PlatformConfig, error) {
	cfg, err := platformConfigTx(tx, true)
	if err != nil {
		return nil, err
	}
	if cfg.AdminID != callerID {
		return nil, ErrNotAdmin
	}
	return cfg, nil
}

// AddOperator whitelists an account. Admin only.
func (s *AccessService) AddOperator(callerID, accountID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.requireAdminTx(tx, callerID); err != nil {
			return err
		}

		var account models.Account
		if err := tx.First(&account, "id = ?", accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		var existing models.Operator
		if err := tx.First(&existing, "account_id = ?", accountID).Error; err == nil {
			// Already whitelisted, nothing to change.
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		operator := &models.Operator{AccountID: accountID, AddedBy: callerID}
		if err := tx.Create(operator).Error; err != nil {
			return fmt.Errorf("failed to add operator: %w", err)
		}

		return s.eventService.EmitTx(tx, models.EventOperatorAdded, nil, callerID, models.JSONB{
			"operator_id": accountID.String(),
		})
	})
}

// RemoveOperator drops an account from the whitelist. Admin only.
func (s *AccessService) RemoveOperator(callerID, accountID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.requireAdminTx(tx, callerID); err != nil {
			return err
		}

		result := tx.Delete(&models.Operator{}, "account_id = ?", accountID)
		if result.Error != nil {
			return fmt.Errorf("failed to remove operator: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Not whitelisted, nothing to change.
			return nil
		}

		return s.eventService.EmitTx(tx, models.EventOperatorRemoved, nil, callerID, models.JSONB{
			"operator_id": accountID.String(),
		})
	})
}

// TransferAdmin hands the administrator role to another existing account.
// Only the current administrator may call it.
func (s *AccessService) TransferAdmin(callerID, newAdminID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		cfg, err := s.requireAdminTx(tx, callerID)
		if err != nil {
			return err
		}

		var account models.Account
		if err := tx.First(&account, "id = ?", newAdminID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if cfg.AdminID == newAdminID {
			return nil
		}

		if err := tx.Model(cfg).Update("admin_id", newAdminID).Error; err != nil {
			return fmt.Errorf("failed to transfer admin: %w", err)
		}

		return s.eventService.EmitTx(tx, models.EventAdminTransferred, nil, callerID, models.JSONB{
			"previous_admin": callerID.String(),
			"new_admin":      newAdminID.String(),
		})
	})
}

// IsAdmin is the read-side admin predicate.
func (s *AccessService) IsAdmin(callerID uuid.UUID) (bool, error) {
	return s.IsAdminTx(s.db, callerID)
}

type PlatformStats struct {
	TotalAccounts      int64 `json:"total_accounts"`
	ActiveAccounts     int64 `json:"active_accounts"`
	TotalModels        int64 `json:"total_models"`
	CopyListings       int64 `json:"copy_listings"`
	SubscriptionGrants int64 `json:"subscription_grants"`
	TotalTransfers     int64 `json:"total_transfers"`
	SalesVolume        int64 `json:"sales_volume"`
	FeeRevenue         int64 `json:"fee_revenue"`
	TotalEvents        int64 `json:"total_events"`
}

// GetPlatformStats aggregates headline counters for the admin dashboard.
func (s *AccessService) GetPlatformStats() (*PlatformStats, error) {
	stats := &PlatformStats{}

	s.db.Model(&models.Account{}).Count(&stats.TotalAccounts)
	s.db.Model(&models.Account{}).
		Where("status = ?", models.AccountStatusActive).
		Count(&stats.ActiveAccounts)

	s.db.Model(&models.ModelAsset{}).Count(&stats.TotalModels)
	s.db.Model(&models.CopySaleListing{}).Count(&stats.CopyListings)
	s.db.Model(&models.SubscriptionGrant{}).Count(&stats.SubscriptionGrants)

	s.db.Model(&models.Transfer{}).Count(&stats.TotalTransfers)
	s.db.Model(&models.Transfer{}).
		Where("kind IN ?", []models.TransferKind{models.TransferKindCopySale, models.TransferKindSubscription}).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.SalesVolume)
	s.db.Model(&models.Transfer{}).
		Where("kind = ?", models.TransferKindPlatformFee).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.FeeRevenue)

	s.db.Model(&models.LedgerEvent{}).Count(&stats.TotalEvents)

	return stats, nil
}

func (s *AccessService) ListOperators(params utils.PaginationParams) ([]models.Operator, int64, error) {
	query := s.db.Model(&models.Operator{}).Preload("Account")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count operators: %w", err)
	}

	query = utils.ApplyPagination(query, params)

	var operators []models.Operator
	if err := query.Order("created_at DESC").Find(&operators).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch operators: %w", err)
	}

	return operators, total, nil
}
