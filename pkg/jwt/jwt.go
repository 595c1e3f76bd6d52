package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Manager signs and validates the bearer tokens exchanged with the host process
type Manager struct {
	secret string
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewManager creates a new JWT manager
func NewManager(secret string, expiry time.Duration) *Manager {
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}
	return &Manager{
		secret: secret,
		expiry: expiry,
		issuer: "meeting-session",
		now:    time.Now,
	}
}

// GenerateToken generates a short-lived HS256 token for userID in roomName
func (m *Manager) GenerateToken(userID, roomName string) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:   userID,
		RoomName: roomName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates and parses a token produced by GenerateToken
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
