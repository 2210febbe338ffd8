package utils

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessIssuer  = "spa-backend"
	refreshIssuer = "spa-backend-refresh"
)

var (
	jwtMu           sync.RWMutex
	jwtSecretKey    = []byte("dev-only-secret-change-me")
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// ConfigureJWT sets the signing secret and token lifetimes. Zero durations keep the defaults.
func ConfigureJWT(secret string, accessTTL, refreshTTL time.Duration) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	if secret != "" {
		jwtSecretKey = []byte(secret)
	}
	if accessTTL > 0 {
		accessTokenTTL = accessTTL
	}
	if refreshTTL > 0 {
		refreshTokenTTL = refreshTTL
	}
}

func signingKey() []byte {
	jwtMu.RLock()
	defer jwtMu.RUnlock()
	return jwtSecretKey
}

// Claims defines the JWT claims structure.
// Kind is "customer" or "staff"; Role is the staff role, or "customer".
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Kind     string `json:"kind"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a signed access token.
func GenerateAccessToken(userID int64, kind, username, role string) (string, error) {
	jwtMu.RLock()
	ttl := accessTokenTTL
	jwtMu.RUnlock()

	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Kind:     kind,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    accessIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(signingKey())
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// GenerateRefreshToken creates a refresh token carrying only the principal identity.
func GenerateRefreshToken(userID int64, kind string) (string, error) {
	jwtMu.RLock()
	ttl := refreshTokenTTL
	jwtMu.RUnlock()

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    refreshIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(signingKey())
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates an access token.
func ValidateToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, accessIssuer)
}

// ValidateRefreshToken parses and validates a refresh token.
func ValidateRefreshToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, refreshIssuer)
}

func parseToken(tokenString, issuer string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey(), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
