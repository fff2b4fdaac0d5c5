package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims represents JWT claims carried by chat tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Type     string `json:"type"` // "access" or "refresh"
}

// Manager issues and validates JWT token pairs. Tokens are signed with an
// RSA keypair generated at startup, so all outstanding tokens are
// invalidated on restart.
type Manager struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	accessDuration  time.Duration
	refreshDuration time.Duration
	issuer          string

	// In-memory revocation store, keyed by user ID.
	revokedUsers map[string]time.Time
	mu           sync.RWMutex
}

// NewManager creates a new JWT manager.
func NewManager(accessDuration, refreshDuration time.Duration, issuer string) (*Manager, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	return &Manager{
		privateKey:      privateKey,
		publicKey:       &privateKey.PublicKey,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		issuer:          issuer,
		revokedUsers:    make(map[string]time.Time),
	}, nil
}

// GenerateTokenPair creates access and refresh tokens for a user.
func (m *Manager) GenerateTokenPair(userID, username string) (accessToken, refreshToken string, accessExp int64, err error) {
	now := time.Now()

	accessExp = now.Add(m.accessDuration).Unix()
	accessClaims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessDuration)),
		},
		UserID:   userID,
		Username: username,
		Type:     "access",
	}

	accessToken, err = m.signToken(accessClaims)
	if err != nil {
		return "", "", 0, err
	}

	refreshClaims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshDuration)),
		},
		UserID:   userID,
		Username: username,
		Type:     "refresh",
	}

	refreshToken, err = m.signToken(refreshClaims)
	if err != nil {
		return "", "", 0, err
	}

	return accessToken, refreshToken, accessExp, nil
}

// ValidateToken validates a token and returns its claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		return m.publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	m.mu.RLock()
	_, revoked := m.revokedUsers[claims.UserID]
	m.mu.RUnlock()
	if revoked {
		return nil, ErrRevokedToken
	}

	return claims, nil
}

// RefreshTokens creates a new token pair from a valid refresh token.
func (m *Manager) RefreshTokens(refreshTokenString string) (accessToken, refreshToken string, accessExp int64, err error) {
	claims, err := m.ValidateToken(refreshTokenString)
	if err != nil {
		return "", "", 0, err
	}

	if claims.Type != "refresh" {
		return "", "", 0, ErrInvalidToken
	}

	return m.GenerateTokenPair(claims.UserID, claims.Username)
}

// RevokeUserTokens revokes all outstanding tokens for a user.
func (m *Manager) RevokeUserTokens(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokedUsers[userID] = time.Now().Add(m.refreshDuration)
}

// CleanupExpiredRevocations removes revocation entries that can no longer
// match a live token.
func (m *Manager) CleanupExpiredRevocations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for userID, expiry := range m.revokedUsers {
		if now.After(expiry) {
			delete(m.revokedUsers, userID)
		}
	}
}

func (m *Manager) signToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(m.privateKey)
}
