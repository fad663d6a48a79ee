// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/modelmart/modelmart-backend/internal/config"
	"github.com/modelmart/modelmart-backend/internal/models"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

// AuthService provisions the identities the ledger trusts: signup, login
// and token refresh. The core itself never authenticates; it takes the
// caller identity asserted by a verified token.
type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strong_password"`
}

type AuthResponse struct {
	Account      *models.Account `json:"account"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"` // in seconds
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Signup(req *SignupRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var existing models.Account
	if err := s.db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error; err == nil {
		if existing.Email == req.Email {
			return nil, errors.New("account with this email already exists")
		}
		return nil, errors.New("username already taken")
	}

	account := &models.Account{
		Username: req.Username,
		Email:    req.Email,
		Role:     models.AccountRoleUser,
		Status:   models.AccountStatusActive,
	}

	if err := account.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to set password: %w", err)
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return s.issueTokens(account)
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var account models.Account
	if err := s.db.Where("email = ?", req.Email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := account.CheckPassword(req.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	if account.Status != models.AccountStatusActive {
		return nil, errors.New("account is not active")
	}

	now := time.Now()
	s.db.Model(&account).UpdateColumn("last_login_at", &now)

	return s.issueTokens(&account)
}

func (s *AuthService) Refresh(req *RefreshRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	subject, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	accountID, err := uuid.Parse(subject)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	var account models.Account
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		return nil, ErrAccountNotFound
	}

	return s.issueTokens(&account)
}

func (s *AuthService) GetAccount(accountID uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &account, nil
}

func (s *AuthService) issueTokens(account *models.Account) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(account.ID, account.Username, string(account.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(account.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		Account:      account,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}
