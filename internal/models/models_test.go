// internal/models/models_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleTypeValid(t *testing.T) {
	assert.True(t, SaleTypeNotForSale.Valid())
	assert.True(t, SaleTypeCopies.Valid())
	assert.True(t, SaleTypeSubscription.Valid())
	assert.False(t, SaleType("auction").Valid())
	assert.False(t, SaleType("").Valid())
}

func TestSubscriptionGrantActive(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("future expiry is active", func(t *testing.T) {
		grant := SubscriptionGrant{ExpiresAt: now.Add(time.Hour)}
		assert.True(t, grant.Active(now))
	})

	t.Run("past expiry is inactive", func(t *testing.T) {
		grant := SubscriptionGrant{ExpiresAt: now.Add(-time.Second)}
		assert.False(t, grant.Active(now))
	})

	t.Run("expiry equal to now is still active", func(t *testing.T) {
		grant := SubscriptionGrant{ExpiresAt: now}
		assert.True(t, grant.Active(now))
	})
}

func TestAccountPassword(t *testing.T) {
	account := &Account{}
	require.NoError(t, account.SetPassword("Sup3rSecret!"))

	assert.NotEqual(t, "Sup3rSecret!", account.PasswordHash)
	assert.NoError(t, account.CheckPassword("Sup3rSecret!"))
	assert.Error(t, account.CheckPassword("wrong"))
}

func TestJSONBValueScan(t *testing.T) {
	original := JSONB{"name": "resnet", "layers": float64(50)}

	value, err := original.Value()
	require.NoError(t, err)

	var decoded JSONB
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, original, decoded)
}

func TestJSONBScanNil(t *testing.T) {
	var decoded JSONB
	require.NoError(t, decoded.Scan(nil))
	assert.Nil(t, decoded)
}
