// internal/services/auth_service_test.go
package services

import (
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/modelmart/modelmart-backend/internal/config"
	"github.com/modelmart/modelmart-backend/internal/models"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

type AuthServiceSuite struct {
	suite.Suite
	db   *gorm.DB
	auth *AuthService
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		s.T().Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(db.AutoMigrate(&models.Account{}))

	utils.SetJWTSecret("auth-suite-secret")
	cfg := &config.Config{}
	cfg.JWT.AccessTokenTTL = 1
	cfg.JWT.RefreshTokenTTL = 24
	s.auth = NewAuthService(db, cfg)
}

func (s *AuthServiceSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("TRUNCATE TABLE accounts CASCADE").Error)
}

func (s *AuthServiceSuite) TestSignupLoginRefresh() {
	signup, err := s.auth.Signup(&SignupRequest{
		Username: "alice",
		Email:    "alice@test.local",
		Password: "Sup3rSecret!",
	})
	s.Require().NoError(err)
	s.NotEmpty(signup.AccessToken)
	s.Equal("Bearer", signup.TokenType)
	s.Equal(models.AccountRoleUser, signup.Account.Role)

	// Duplicate email and username are both rejected.
	_, err = s.auth.Signup(&SignupRequest{
		Username: "alice2", Email: "alice@test.local", Password: "Sup3rSecret!",
	})
	s.Error(err)
	_, err = s.auth.Signup(&SignupRequest{
		Username: "alice", Email: "other@test.local", Password: "Sup3rSecret!",
	})
	s.Error(err)

	login, err := s.auth.Login(&LoginRequest{Email: "alice@test.local", Password: "Sup3rSecret!"})
	s.Require().NoError(err)
	s.Equal(signup.Account.ID, login.Account.ID)

	_, err = s.auth.Login(&LoginRequest{Email: "alice@test.local", Password: "wrong-password"})
	s.Error(err)

	refreshed, err := s.auth.Refresh(&RefreshRequest{RefreshToken: login.RefreshToken})
	s.Require().NoError(err)
	s.Equal(signup.Account.ID, refreshed.Account.ID)

	_, err = s.auth.Refresh(&RefreshRequest{RefreshToken: "garbage"})
	s.Error(err)
}

func (s *AuthServiceSuite) TestSuspendedAccountCannotLogin() {
	signup, err := s.auth.Signup(&SignupRequest{
		Username: "bob",
		Email:    "bob@test.local",
		Password: "Sup3rSecret!",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(signup.Account).
		Update("status", models.AccountStatusSuspended).Error)

	_, err = s.auth.Login(&LoginRequest{Email: "bob@test.local", Password: "Sup3rSecret!"})
	s.Error(err)
}
