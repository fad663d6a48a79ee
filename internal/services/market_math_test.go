// internal/services/market_math_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name       string
		paid       int64
		feePercent int
		wantFee    int64
		wantPayout int64
	}{
		{"five percent of 100", 100, 5, 5, 95},
		{"five percent of 99 truncates", 99, 5, 4, 95},
		{"zero percent", 1000, 0, 0, 1000},
		{"full fee", 1000, 100, 1000, 0},
		{"one credit", 1, 50, 0, 1},
		{"small payment below fee unit", 19, 5, 0, 19},
		{"large payment", 1_000_000_000, 3, 30_000_000, 970_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, payout := splitFee(tt.paid, tt.feePercent)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.wantPayout, payout)
			assert.Equal(t, tt.paid, fee+payout, "fee and payout must account for the full payment")
		})
	}
}

func TestNextExpiry(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	period := int64(3600)

	t.Run("no existing grant starts from now", func(t *testing.T) {
		got := nextExpiry(now, nil, period)
		assert.Equal(t, now.Add(time.Hour), got)
	})

	t.Run("active grant stacks onto current expiry", func(t *testing.T) {
		current := now.Add(30 * time.Minute)
		got := nextExpiry(now, &current, period)
		assert.Equal(t, current.Add(time.Hour), got)
	})

	t.Run("lapsed grant starts fresh from now", func(t *testing.T) {
		current := now.Add(-time.Minute)
		got := nextExpiry(now, &current, period)
		assert.Equal(t, now.Add(time.Hour), got)
	})

	t.Run("grant expiring exactly now still stacks", func(t *testing.T) {
		current := now
		got := nextExpiry(now, &current, period)
		assert.Equal(t, now.Add(time.Hour), got)
	})
}
