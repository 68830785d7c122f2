package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	SessionCodeLength = 6

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateSessionCode - generates a short human-typeable code for a session.
func GenerateSessionCode() (string, error) {
	alphabetSize := big.NewInt(int64(len(codeAlphabet)))

	var code strings.Builder
	code.Grow(SessionCodeLength)

	for range SessionCodeLength {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		code.WriteByte(codeAlphabet[n.Int64()])
	}

	return code.String(), nil
}

// CanonicalCode - session codes are case-insensitive and stored upper-cased.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GenerateParticipantID - generates an opaque participant identifier.
func GenerateParticipantID() string {
	return uuid.NewString()
}
