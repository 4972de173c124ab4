package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"order-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

var jwtConfig *config.JWTConfig

// OperatorClaims carries the identity of the back-office operator
type OperatorClaims struct {
	Email    string `json:"email"`
	UserID   uint   `json:"user_id"`
	TenantID *uint  `json:"tenant_id,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Initialize sets up the JWT utility with configuration
func Initialize(cfg *config.JWTConfig) {
	jwtConfig = cfg
}

// GenerateToken creates a signed token for an operator. Used by tests and
// tooling; the service itself only validates tokens issued elsewhere.
func GenerateToken(email string, userID uint, tenantID *uint, role string) (string, error) {
	if jwtConfig == nil {
		return "", errors.New("JWT configuration not initialized")
	}

	claims := &OperatorClaims{
		Email:    email,
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(jwtConfig.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.SigningKey))
}

// ValidateToken validates the token and returns the operator claims
func ValidateToken(tokenString string) (*OperatorClaims, error) {
	if jwtConfig == nil {
		return nil, errors.New("JWT configuration not initialized")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&OperatorClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtConfig.SigningKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*OperatorClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
