// internal/services/ledger_suite_test.go
package services

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/modelmart/modelmart-backend/internal/config"
	"github.com/modelmart/modelmart-backend/internal/models"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

func defaultPagination() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "asc"}
}

// LedgerSuite runs against a throwaway Postgres database. Set
// TEST_DATABASE_URL to enable it; without one the suite is skipped.
type LedgerSuite struct {
	suite.Suite
	db *gorm.DB

	events   *EventService
	access   *AccessService
	registry *RegistryService
	treasury *TreasuryService
	market   *MarketService

	admin        models.Account
	treasuryAcct models.Account
	owner        models.Account
	buyer        models.Account
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		s.T().Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(db.AutoMigrate(
		&models.Account{},
		&models.ModelAsset{},
		&models.RegistryState{},
		&models.CopySaleListing{},
		&models.SubscriptionListing{},
		&models.SubscriptionGrant{},
		&models.PlatformConfig{},
		&models.Operator{},
		&models.LedgerEvent{},
		&models.Transfer{},
		&models.Deposit{},
	))

	cfg := &config.Config{}
	s.events = NewEventService(db)
	s.access = NewAccessService(db, s.events)
	s.registry = NewRegistryService(db, s.access, s.events)
	s.treasury = NewTreasuryService(db, cfg)
	s.market = NewMarketService(db, s.registry, s.access, s.treasury, s.events)
}

func (s *LedgerSuite) SetupTest() {
	tables := []string{
		"ledger_events", "transfers", "deposits",
		"subscription_grants", "subscription_listings", "copy_sale_listings",
		"operators", "model_assets", "platform_configs", "registry_states",
		"accounts",
	}
	for _, table := range tables {
		s.Require().NoError(s.db.Exec("TRUNCATE TABLE " + table + " CASCADE").Error)
	}

	s.admin = s.createAccount("admin", models.AccountRoleAdmin, 0)
	s.treasuryAcct = s.createAccount("treasury", models.AccountRoleUser, 0)
	s.owner = s.createAccount("owner", models.AccountRoleUser, 0)
	s.buyer = s.createAccount("buyer", models.AccountRoleUser, 10_000)

	s.Require().NoError(s.db.Create(&models.PlatformConfig{
		ID:             1,
		AdminID:        s.admin.ID,
		FeePercent:     5,
		FeeRecipientID: s.treasuryAcct.ID,
		TreasuryID:     s.treasuryAcct.ID,
	}).Error)
	s.Require().NoError(s.db.Create(&models.RegistryState{ID: 1, NextModelID: 0}).Error)
}

func (s *LedgerSuite) createAccount(username string, role models.AccountRole, balance int64) models.Account {
	account := models.Account{
		Username: username,
		Email:    username + "@test.local",
		Role:     role,
		Status:   models.AccountStatusActive,
		Balance:  balance,
	}
	s.Require().NoError(account.SetPassword("Sup3rSecret!"))
	s.Require().NoError(s.db.Create(&account).Error)
	return account
}

func (s *LedgerSuite) balance(accountID uuid.UUID) int64 {
	var account models.Account
	s.Require().NoError(s.db.First(&account, "id = ?", accountID).Error)
	return account.Balance
}

func (s *LedgerSuite) registerModel(ownerID uuid.UUID, hash string) *models.ModelAsset {
	model, err := s.registry.Register(ownerID, &RegisterModelRequest{ContentHash: hash})
	s.Require().NoError(err)
	return model
}

func (s *LedgerSuite) eventCount(eventType models.EventType) int64 {
	var count int64
	s.Require().NoError(s.db.Model(&models.LedgerEvent{}).
		Where("type = ?", eventType).Count(&count).Error)
	return count
}

func (s *LedgerSuite) TestRegisterAssignsSequentialIDs() {
	first := s.registerModel(s.owner.ID, "aa11")
	second := s.registerModel(s.owner.ID, "bb22")

	s.Equal(uint64(0), first.ID)
	s.Equal(uint64(1), second.ID)
	s.Equal(models.SaleTypeNotForSale, first.SaleType)

	count, err := s.registry.Count()
	s.Require().NoError(err)
	s.Equal(uint64(2), count)

	s.Equal(int64(2), s.eventCount(models.EventModelRegistered))
}

func (s *LedgerSuite) TestRegisterRejectsEmptyContent() {
	_, err := s.registry.Register(s.owner.ID, &RegisterModelRequest{ContentHash: ""})
	s.ErrorIs(err, ErrEmptyContent)

	// The rejected attempt consumed no ID.
	next := s.registerModel(s.owner.ID, "aa11")
	s.Equal(uint64(0), next.ID)
}

func (s *LedgerSuite) TestSetSaleTypeSameValueEmitsNoEvent() {
	model := s.registerModel(s.owner.ID, "aa11")

	s.Require().NoError(s.registry.SetSaleType(s.owner.ID, model.ID, models.SaleTypeCopies))
	s.Equal(int64(1), s.eventCount(models.EventSaleTypeChanged))

	s.Require().NoError(s.registry.SetSaleType(s.owner.ID, model.ID, models.SaleTypeCopies))
	s.Equal(int64(1), s.eventCount(models.EventSaleTypeChanged))
}

func (s *LedgerSuite) TestRegisterRejectsDuplicateContent() {
	s.registerModel(s.owner.ID, "aa11")

	_, err := s.registry.Register(s.buyer.ID, &RegisterModelRequest{ContentHash: "aa11"})
	s.ErrorIs(err, ErrDuplicateContent)

	// The failed attempt must not consume an ID.
	next := s.registerModel(s.buyer.ID, "bb22")
	s.Equal(uint64(1), next.ID)
}

func (s *LedgerSuite) TestUpdateContentHash() {
	model := s.registerModel(s.owner.ID, "aa11")
	other := s.registerModel(s.owner.ID, "bb22")

	s.Require().NoError(s.registry.UpdateContentHash(s.owner.ID, model.ID, "cc33"))

	updated, err := s.registry.Get(model.ID)
	s.Require().NoError(err)
	s.Equal("cc33", updated.ContentHash)

	// The old hash is free again.
	reclaimed := s.registerModel(s.buyer.ID, "aa11")
	s.Equal(uint64(2), reclaimed.ID)

	// Claiming another model's live hash fails.
	s.ErrorIs(s.registry.UpdateContentHash(s.owner.ID, model.ID, other.ContentHash), ErrDuplicateContent)

	// Same-hash update is a silent no-op.
	s.Require().NoError(s.registry.UpdateContentHash(s.owner.ID, model.ID, "cc33"))
	s.Equal(int64(1), s.eventCount(models.EventContentHashUpdated))

	// Strangers may not touch it.
	s.ErrorIs(s.registry.UpdateContentHash(s.buyer.ID, model.ID, "dd44"), ErrNotAuthorized)
}

func (s *LedgerSuite) TestCopySaleSettlement() {
	model := s.registerModel(s.owner.ID, "aa11")

	_, err := s.market.ListForCopies(s.buyer.ID, model.ID, &ListCopiesRequest{Price: 100, TotalCopies: 2})
	s.ErrorIs(err, ErrNotModelOwner)

	listing, err := s.market.ListForCopies(s.owner.ID, model.ID, &ListCopiesRequest{Price: 100, TotalCopies: 2})
	s.Require().NoError(err)
	s.Equal(int64(0), listing.SoldCopies)

	listed, err := s.registry.Get(model.ID)
	s.Require().NoError(err)
	s.Equal(models.SaleTypeCopies, listed.SaleType)

	// Payment must match the price exactly.
	_, err = s.market.BuyCopy(s.buyer.ID, model.ID, 99)
	s.ErrorIs(err, ErrIncorrectPayment)
	_, err = s.market.BuyCopy(s.buyer.ID, model.ID, 101)
	s.ErrorIs(err, ErrIncorrectPayment)

	details, err := s.market.BuyCopy(s.buyer.ID, model.ID, 100)
	s.Require().NoError(err)
	s.Equal(int64(1), details.SoldCopies)

	// 5% fee split: 5 to the fee recipient, 95 to the owner.
	s.Equal(int64(10_000-100), s.balance(s.buyer.ID))
	s.Equal(int64(95), s.balance(s.owner.ID))
	s.Equal(int64(5), s.balance(s.treasuryAcct.ID))

	_, err = s.market.BuyCopy(s.buyer.ID, model.ID, 100)
	s.Require().NoError(err)

	_, err = s.market.BuyCopy(s.buyer.ID, model.ID, 100)
	s.ErrorIs(err, ErrSoldOut)

	// A model that ever had a copy listing cannot be listed again.
	_, err = s.market.ListForCopies(s.owner.ID, model.ID, &ListCopiesRequest{Price: 50, TotalCopies: 1})
	s.ErrorIs(err, ErrAlreadyListed)

	s.Equal(int64(2), s.eventCount(models.EventCopyPurchased))
}

func (s *LedgerSuite) TestBuyCopyFailsWithInsufficientFunds() {
	model := s.registerModel(s.owner.ID, "aa11")
	_, err := s.market.ListForCopies(s.owner.ID, model.ID, &ListCopiesRequest{Price: 20_000, TotalCopies: 1})
	s.Require().NoError(err)

	_, err = s.market.BuyCopy(s.buyer.ID, model.ID, 20_000)
	s.ErrorIs(err, ErrInsufficientFunds)

	// Nothing moved and no copy was consumed.
	s.Equal(int64(10_000), s.balance(s.buyer.ID))
	details, err := s.market.GetCopySaleDetails(model.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), details.SoldCopies)
	s.Equal(int64(0), s.eventCount(models.EventCopyPurchased))
}

func (s *LedgerSuite) TestSubscriptionSettlement() {
	model := s.registerModel(s.owner.ID, "aa11")

	_, err := s.market.ListForSubscription(s.owner.ID, model.ID, &ListSubscriptionRequest{RatePerPeriod: 50, PeriodSeconds: 3600})
	s.Require().NoError(err)

	// Paying under the rate settles nothing.
	_, err = s.market.Subscribe(s.buyer.ID, model.ID, 49)
	s.ErrorIs(err, ErrIncorrectPayment)

	grant, err := s.market.Subscribe(s.buyer.ID, model.ID, 50)
	s.Require().NoError(err)
	s.WithinDuration(time.Now().Add(time.Hour), grant.ExpiresAt, 10*time.Second)

	active, err := s.market.CheckSubscription(model.ID, s.buyer.ID)
	s.Require().NoError(err)
	s.True(active)

	// A second payment stacks another period onto the current expiry.
	stacked, err := s.market.Subscribe(s.buyer.ID, model.ID, 50)
	s.Require().NoError(err)
	s.WithinDuration(grant.ExpiresAt.Add(time.Hour), stacked.ExpiresAt, time.Second)

	// Overpayment is kept and split like any payment.
	_, err = s.market.Subscribe(s.buyer.ID, model.ID, 100)
	s.Require().NoError(err)
	s.Equal(int64(10_000-50-50-100), s.balance(s.buyer.ID))

	// Terms are replaceable in place.
	_, err = s.market.ListForSubscription(s.owner.ID, model.ID, &ListSubscriptionRequest{RatePerPeriod: 80, PeriodSeconds: 60})
	s.Require().NoError(err)
	updated, err := s.market.GetSubscriptionListing(model.ID)
	s.Require().NoError(err)
	s.Equal(int64(80), updated.RatePerPeriod)

	// An account that never subscribed is simply inactive.
	active, err = s.market.CheckSubscription(model.ID, s.owner.ID)
	s.Require().NoError(err)
	s.False(active)
}

func (s *LedgerSuite) TestOperatorsManageModels() {
	model := s.registerModel(s.owner.ID, "aa11")

	operator := s.createAccount("operator", models.AccountRoleUser, 0)

	s.ErrorIs(s.access.AddOperator(s.owner.ID, operator.ID), ErrNotAdmin)
	s.Require().NoError(s.access.AddOperator(s.admin.ID, operator.ID))

	// Adding twice is a no-op without a second event.
	s.Require().NoError(s.access.AddOperator(s.admin.ID, operator.ID))
	s.Equal(int64(1), s.eventCount(models.EventOperatorAdded))

	// Operators may mutate any model's metadata fields.
	s.Require().NoError(s.registry.UpdateContentHash(operator.ID, model.ID, "bb22"))
	s.Require().NoError(s.registry.SetSaleType(operator.ID, model.ID, models.SaleTypeNotForSale))

	s.Require().NoError(s.access.RemoveOperator(s.admin.ID, operator.ID))
	s.ErrorIs(s.registry.UpdateContentHash(operator.ID, model.ID, "cc33"), ErrNotAuthorized)

	// Removing an absent operator is a no-op.
	s.Require().NoError(s.access.RemoveOperator(s.admin.ID, operator.ID))
	s.Equal(int64(1), s.eventCount(models.EventOperatorRemoved))
}

func (s *LedgerSuite) TestFeeAdministration() {
	s.ErrorIs(s.market.SetFeePercent(s.admin.ID, 101), ErrInvalidFeePercent)
	s.ErrorIs(s.market.SetFeePercent(s.owner.ID, 10), ErrNotAdmin)
	s.Require().NoError(s.market.SetFeePercent(s.admin.ID, 10))

	// Setting the same value again emits nothing.
	s.Require().NoError(s.market.SetFeePercent(s.admin.ID, 10))
	s.Equal(int64(1), s.eventCount(models.EventFeePercentChanged))

	s.ErrorIs(s.market.SetFeeRecipient(s.admin.ID, uuid.Nil), ErrZeroRecipient)
	s.ErrorIs(s.market.SetFeeRecipient(s.admin.ID, uuid.New()), ErrZeroRecipient)
	s.Require().NoError(s.market.SetFeeRecipient(s.admin.ID, s.admin.ID))

	feeConfig, err := s.market.GetFeeConfig()
	s.Require().NoError(err)
	s.Equal(10, feeConfig.FeePercent)
	s.Equal(s.admin.ID, feeConfig.FeeRecipientID)
}

func (s *LedgerSuite) TestWithdrawFees() {
	_, err := s.market.WithdrawFees(s.admin.ID)
	s.ErrorIs(err, ErrNothingToWithdraw)

	// Accrue a fee into the treasury, then redirect the recipient and sweep.
	model := s.registerModel(s.owner.ID, "aa11")
	_, err = s.market.ListForCopies(s.owner.ID, model.ID, &ListCopiesRequest{Price: 100, TotalCopies: 1})
	s.Require().NoError(err)
	_, err = s.market.BuyCopy(s.buyer.ID, model.ID, 100)
	s.Require().NoError(err)
	s.Equal(int64(5), s.balance(s.treasuryAcct.ID))

	// While the recipient is the treasury itself the fees already rest where
	// they belong; a sweep would be a self-transfer and is refused.
	_, err = s.market.WithdrawFees(s.admin.ID)
	s.ErrorIs(err, ErrNothingToWithdraw)
	s.Equal(int64(5), s.balance(s.treasuryAcct.ID))
	s.Equal(int64(0), s.eventCount(models.EventFeesWithdrawn))

	s.Require().NoError(s.market.SetFeeRecipient(s.admin.ID, s.admin.ID))

	_, err = s.market.WithdrawFees(s.owner.ID)
	s.ErrorIs(err, ErrNotAdmin)

	swept, err := s.market.WithdrawFees(s.admin.ID)
	s.Require().NoError(err)
	s.Equal(int64(5), swept)
	s.Equal(int64(0), s.balance(s.treasuryAcct.ID))
	s.Equal(int64(5), s.balance(s.admin.ID))
	s.Equal(int64(1), s.eventCount(models.EventFeesWithdrawn))
}

func (s *LedgerSuite) TestAdminTransfer() {
	newAdmin := s.createAccount("successor", models.AccountRoleUser, 0)

	s.ErrorIs(s.access.TransferAdmin(s.owner.ID, newAdmin.ID), ErrNotAdmin)
	s.Require().NoError(s.access.TransferAdmin(s.admin.ID, newAdmin.ID))

	isAdmin, err := s.access.IsAdmin(newAdmin.ID)
	s.Require().NoError(err)
	s.True(isAdmin)

	wasAdmin, err := s.access.IsAdmin(s.admin.ID)
	s.Require().NoError(err)
	s.False(wasAdmin)

	// The old admin lost all privileged operations.
	s.ErrorIs(s.market.SetFeePercent(s.admin.ID, 7), ErrNotAdmin)
	s.Require().NoError(s.market.SetFeePercent(newAdmin.ID, 7))
}

func (s *LedgerSuite) TestEventLog() {
	model := s.registerModel(s.owner.ID, "aa11")
	_, err := s.market.ListForCopies(s.owner.ID, model.ID, &ListCopiesRequest{Price: 100, TotalCopies: 1})
	s.Require().NoError(err)
	_, err = s.market.BuyCopy(s.buyer.ID, model.ID, 100)
	s.Require().NoError(err)

	events, total, err := s.events.ModelEvents(model.ID, defaultPagination())
	s.Require().NoError(err)
	s.Equal(int64(4), total) // registered, sale type changed, listed, purchased
	s.Len(events, 4)

	purchaseType := models.EventCopyPurchased
	filtered, total, err := s.events.SearchEvents(EventSearchParams{
		PaginationParams: defaultPagination(),
		Type:             &purchaseType,
	})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(filtered, 1)
	s.Equal(model.ID, *filtered[0].ModelID)
}
