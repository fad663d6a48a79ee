// internal/database/connection.go
package database

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/modelmart/modelmart-backend/internal/config"
	"github.com/modelmart/modelmart-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
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
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Account indexes
		"CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email)",
		"CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts(username)",
		"CREATE INDEX IF NOT EXISTS idx_accounts_role_status ON accounts(role, status)",

		// Model indexes
		"CREATE INDEX IF NOT EXISTS idx_model_assets_owner ON model_assets(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_model_assets_sale_type ON model_assets(sale_type)",
		"CREATE INDEX IF NOT EXISTS idx_model_assets_created_at ON model_assets(created_at DESC)",

		// Subscription indexes
		"CREATE INDEX IF NOT EXISTS idx_subscription_grants_subscriber ON subscription_grants(subscriber_id)",
		"CREATE INDEX IF NOT EXISTS idx_subscription_grants_expires ON subscription_grants(expires_at)",

		// Ledger indexes
		"CREATE INDEX IF NOT EXISTS idx_ledger_events_type ON ledger_events(type, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_ledger_events_model ON ledger_events(model_id)",
		"CREATE INDEX IF NOT EXISTS idx_ledger_events_actor ON ledger_events(actor_id)",
		"CREATE INDEX IF NOT EXISTS idx_transfers_from ON transfers(from_id)",
		"CREATE INDEX IF NOT EXISTS idx_transfers_to ON transfers(to_id)",
		"CREATE INDEX IF NOT EXISTS idx_transfers_kind ON transfers(kind, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_deposits_account ON deposits(account_id, status)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedInitialData bootstraps a fresh ledger: the admin account, the treasury
// account, the platform config singleton and the registry counter. Running it
// against an initialized database is a no-op.
func SeedInitialData(db *gorm.DB, cfg *config.Config) error {
	log.Println("Seeding initial data...")

	return db.Transaction(func(tx *gorm.DB) error {
		var configCount int64
		if err := tx.Model(&models.PlatformConfig{}).Count(&configCount).Error; err != nil {
			return fmt.Errorf("failed to check platform config: %w", err)
		}
		if configCount > 0 {
			return nil
		}

		admin := &models.Account{
			Username: cfg.Ledger.AdminUsername,
			Email:    cfg.Ledger.AdminEmail,
			Role:     models.AccountRoleAdmin,
			Status:   models.AccountStatusActive,
		}
		if err := admin.SetPassword(cfg.Ledger.AdminPassword); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}
		if err := tx.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin account: %w", err)
		}

		// The treasury account holds accrued platform fees until withdrawal.
		// It never logs in.
		treasury := &models.Account{
			Username: cfg.Ledger.TreasuryUsername,
			Email:    cfg.Ledger.TreasuryEmail,
			Role:     models.AccountRoleUser,
			Status:   models.AccountStatusActive,
		}
		randomPassword, err := generateSeedPassword()
		if err != nil {
			return fmt.Errorf("failed to generate treasury password: %w", err)
		}
		if err := treasury.SetPassword(randomPassword); err != nil {
			return fmt.Errorf("failed to set treasury password: %w", err)
		}
		if err := tx.Create(treasury).Error; err != nil {
			return fmt.Errorf("failed to create treasury account: %w", err)
		}

		platformConfig := &models.PlatformConfig{
			ID:             1,
			AdminID:        admin.ID,
			FeePercent:     cfg.Ledger.DefaultFeePercent,
			FeeRecipientID: treasury.ID,
			TreasuryID:     treasury.ID,
		}
		if err := tx.Create(platformConfig).Error; err != nil {
			return fmt.Errorf("failed to create platform config: %w", err)
		}

		registryState := &models.RegistryState{
			ID:          1,
			NextModelID: 0,
		}
		if err := tx.Create(registryState).Error; err != nil {
			return fmt.Errorf("failed to create registry state: %w", err)
		}

		log.Println("Initial data seeding completed")
		return nil
	})
}

func generateSeedPassword() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
