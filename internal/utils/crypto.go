// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// HashContent returns the lowercase hex sha256 digest of raw model content.
func HashContent(content []byte) string {
	hasher := sha256.New()
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}

func HashString(input string) string {
	return HashContent([]byte(input))
}

// VerifyContentHash checks raw content against a claimed digest.
// Comparison is case insensitive so uppercase hex is accepted.
func VerifyContentHash(content []byte, expectedHash string) bool {
	return HashContent(content) == strings.ToLower(expectedHash)
}
