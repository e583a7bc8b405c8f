package payment

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StateTokens signs and verifies the state token carried through the
// gateway redirect. The token binds the correlation id to the user who
// started the checkout, so the callback URL can't be replayed for someone
// else or edited to point at a different order.
type StateTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewStateTokens(secret string, ttl time.Duration) *StateTokens {
	return &StateTokens{secret: []byte(secret), ttl: ttl}
}

// Issue signs a state token for one checkout attempt.
func (t *StateTokens) Issue(correlationID, userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"order_id": correlationID,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks signature and expiry and returns the bound ids.
func (t *StateTokens) Verify(tokenString string) (correlationID, userID string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("verify state token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid state token")
	}

	correlationID, _ = claims["order_id"].(string)
	userID, _ = claims["sub"].(string)
	if correlationID == "" || userID == "" {
		return "", "", fmt.Errorf("state token missing claims")
	}
	return correlationID, userID, nil
}
