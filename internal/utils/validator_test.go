// internal/utils/validator_test.go
package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type registerPayload struct {
	Username    string `validate:"required,username"`
	Password    string `validate:"required,strong_password"`
	ContentHash string `validate:"omitempty,max=128"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		payload := registerPayload{
			Username:    "model_maker",
			Password:    "Sup3rSecret!",
			ContentHash: "deadbeef",
		}
		assert.NoError(t, ValidateStruct(&payload))
	})

	t.Run("opaque content hash accepted", func(t *testing.T) {
		payload := registerPayload{
			Username:    "model_maker",
			Password:    "Sup3rSecret!",
			ContentHash: "ipfs://QmYwAPJzv5CZsnA",
		}
		assert.NoError(t, ValidateStruct(&payload))
	})

	t.Run("weak password", func(t *testing.T) {
		payload := registerPayload{
			Username: "model_maker",
			Password: "password",
		}
		err := ValidateStruct(&payload)
		assert.Error(t, err)

		validationErrors := GetValidationErrors(err)
		assert.Len(t, validationErrors, 1)
		assert.Equal(t, "strong_password", validationErrors[0].Tag)
	})

	t.Run("bad username", func(t *testing.T) {
		payload := registerPayload{
			Username: "a b",
			Password: "Sup3rSecret!",
		}
		assert.Error(t, ValidateStruct(&payload))
	})

	t.Run("oversized content hash", func(t *testing.T) {
		payload := registerPayload{
			Username:    "model_maker",
			Password:    "Sup3rSecret!",
			ContentHash: strings.Repeat("a", 129),
		}
		assert.Error(t, ValidateStruct(&payload))
	})
}

func TestGetValidationErrorsNilError(t *testing.T) {
	assert.Empty(t, GetValidationErrors(nil))
}

func TestHashContent(t *testing.T) {
	content := []byte("model weights")
	digest := HashContent(content)

	assert.Len(t, digest, 64)
	assert.True(t, VerifyContentHash(content, digest))
	assert.False(t, VerifyContentHash(content, "DEADBEEF"))

	// Uppercase digests verify too
	assert.True(t, VerifyContentHash(content, strings.ToUpper(digest)))
}
