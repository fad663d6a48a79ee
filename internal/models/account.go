// internal/models/account.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Account is both an authenticated identity and a ledger balance holder.
// Amounts are int64 base units ("credits"); the settlement path never
// touches floating point.
type Account struct {
	BaseModel
	Username     string        `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string        `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string        `json:"-" gorm:"size:255;not null"`
	Role         AccountRole   `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	Status       AccountStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	Balance      int64         `json:"balance" gorm:"not null;default:0"`
	LastLoginAt  *time.Time    `json:"last_login_at"`

	// Relationships
	Models []ModelAsset `json:"models,omitempty" gorm:"foreignKey:OwnerID"`
}

func (a *Account) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hashedPassword)
	return nil
}

func (a *Account) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
}
