package auth

import (
	"fmt"
	"time"

	"bluecollar-chat/domain"
	"bluecollar-chat/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the data stored inside the JWT.
type Claims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates the bearer tokens presented at
// the websocket handshake. The secret comes from configuration.
type TokenManager struct {
	secret   []byte
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) TokenManager {
	return TokenManager{secret: []byte(secret), duration: duration}
}

// Generate creates a signed JWT for a specific user.
func (t TokenManager) Generate(userID string, displayName string, role domain.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      userID,
		DisplayName: displayName,
		Role:        string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "bluecollar",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates signature and expiration, then resolves
// the identity the connection will act as. Every failure collapses
// into ErrUnauthenticated: the connection is refused, never retried.
func (t TokenManager) Verify(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Identity{}, errors.ErrUnauthenticated
	}

	return domain.Identity{
		ID:          domain.UserID(claims.UserID),
		DisplayName: claims.DisplayName,
		Role:        domain.Role(claims.Role),
	}, nil
}
