// internal/router/router_test.go
package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/modelmart/modelmart-backend/internal/config"
	"github.com/modelmart/modelmart-backend/internal/models"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

// AdminRoutesSuite drives admin endpoints through the full middleware chain
// against a throwaway Postgres database. Set TEST_DATABASE_URL to enable it.
type AdminRoutesSuite struct {
	suite.Suite
	db     *gorm.DB
	engine *gin.Engine

	admin     models.Account
	successor models.Account
}

func TestAdminRoutesSuite(t *testing.T) {
	suite.Run(t, new(AdminRoutesSuite))
}

func (s *AdminRoutesSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		s.T().Skip("TEST_DATABASE_URL not set")
	}

	gin.SetMode(gin.TestMode)

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
}

func (s *AdminRoutesSuite) SetupTest() {
	tables := []string{
		"ledger_events", "transfers", "deposits",
		"subscription_grants", "subscription_listings", "copy_sale_listings",
		"operators", "model_assets", "platform_configs", "registry_states",
		"accounts",
	}
	for _, table := range tables {
		s.Require().NoError(s.db.Exec("TRUNCATE TABLE " + table + " CASCADE").Error)
	}

	s.admin = s.createAccount("admin", models.AccountRoleAdmin)
	treasury := s.createAccount("treasury", models.AccountRoleUser)
	s.successor = s.createAccount("successor", models.AccountRoleUser)

	s.Require().NoError(s.db.Create(&models.PlatformConfig{
		ID:             1,
		AdminID:        s.admin.ID,
		FeePercent:     5,
		FeeRecipientID: treasury.ID,
		TreasuryID:     treasury.ID,
	}).Error)
	s.Require().NoError(s.db.Create(&models.RegistryState{ID: 1, NextModelID: 0}).Error)

	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "router-test-secret", AccessTokenTTL: 1},
	}
	s.engine = Initialize(s.db, cfg)
}

func (s *AdminRoutesSuite) createAccount(username string, role models.AccountRole) models.Account {
	account := models.Account{
		Username: username,
		Email:    username + "@test.local",
		Role:     role,
		Status:   models.AccountStatusActive,
	}
	s.Require().NoError(account.SetPassword("Sup3rSecret!"))
	s.Require().NoError(s.db.Create(&account).Error)
	return account
}

func (s *AdminRoutesSuite) token(account models.Account) string {
	token, err := utils.GenerateJWT(account.ID, account.Username, string(account.Role), 1)
	s.Require().NoError(err)
	return token
}

func (s *AdminRoutesSuite) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	s.engine.ServeHTTP(recorder, req)
	return recorder
}

func (s *AdminRoutesSuite) TestAdminGateFollowsAdminTransfer() {
	oldToken := s.token(s.admin)
	newToken := s.token(s.successor)

	// The successor is not the administrator yet.
	resp := s.do(http.MethodPut, "/v1/admin/fees/percent", newToken, `{"percent":7}`)
	s.Equal(http.StatusForbidden, resp.Code)

	resp = s.do(http.MethodPost, "/v1/admin/transfer", oldToken,
		`{"account_id":"`+s.successor.ID.String()+`"}`)
	s.Equal(http.StatusOK, resp.Code)

	// The handover takes effect without a token reissue: the successor's
	// role-user token now passes the admin gate and reaches the handler.
	resp = s.do(http.MethodPut, "/v1/admin/fees/percent", newToken, `{"percent":7}`)
	s.Equal(http.StatusOK, resp.Code)

	var cfg models.PlatformConfig
	s.Require().NoError(s.db.First(&cfg).Error)
	s.Equal(7, cfg.FeePercent)
	s.Equal(s.successor.ID, cfg.AdminID)

	// The previous administrator's still-valid token is refused.
	resp = s.do(http.MethodPut, "/v1/admin/fees/percent", oldToken, `{"percent":9}`)
	s.Equal(http.StatusForbidden, resp.Code)
}

func (s *AdminRoutesSuite) TestAdminRoutesRejectAnonymous() {
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil)
	recorder := httptest.NewRecorder()
	s.engine.ServeHTTP(recorder, req)
	s.Equal(http.StatusUnauthorized, recorder.Code)
}
