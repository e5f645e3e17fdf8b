package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenDuration is used when the configuration does not set one.
const DefaultAccessTokenDuration = 15 * time.Minute

// JWTClaims carries the authenticated identity inside the access token.
type JWTClaims struct {
	UserID  string `json:"user_id"` // UUID
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 access tokens
type JWTManager struct {
	secretKey     []byte
	issuer        string
	tokenDuration time.Duration
}

// NewJWTManager creates a JWT manager
func NewJWTManager(secretKey, issuer string, tokenDuration time.Duration) *JWTManager {
	if issuer == "" {
		issuer = "pdfvault"
	}
	if tokenDuration <= 0 {
		tokenDuration = DefaultAccessTokenDuration
	}
	return &JWTManager{
		secretKey:     []byte(secretKey),
		issuer:        issuer,
		tokenDuration: tokenDuration,
	}
}

// GenerateAccessToken creates an access token for a regular user
func (m *JWTManager) GenerateAccessToken(userID string, email string) (string, error) {
	return m.generate(userID, email, false)
}

// GenerateAdminToken creates an access token carrying the admin claim
func (m *JWTManager) GenerateAdminToken(userID string, email string) (string, error) {
	return m.generate(userID, email, true)
}

func (m *JWTManager) generate(userID, email string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyAccessToken validates a token and returns its claims
func (m *JWTManager) VerifyAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// ExtractTokenFromHeader extracts the token from an Authorization header.
// Expected format: "Authorization: Bearer <token>"
func ExtractTokenFromHeader(authHeader string) (string, error) {
	const bearerPrefix = "Bearer "
	if len(authHeader) < len(bearerPrefix) {
		return "", fmt.Errorf("invalid authorization header")
	}

	if authHeader[:len(bearerPrefix)] != bearerPrefix {
		return "", fmt.Errorf("invalid authorization header format")
	}

	return authHeader[len(bearerPrefix):], nil
}
