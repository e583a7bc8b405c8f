package payment

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

var correlationIDPattern = regexp.MustCompile(`^[0-9]{6}$`)

// NewCorrelationID generates the 6-digit id that ties a checkout to its
// later verification. Leading zeros are preserved.
func NewCorrelationID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate correlation id: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidCorrelationID reports whether s is exactly six digits.
func ValidCorrelationID(s string) bool {
	return correlationIDPattern.MatchString(s)
}
