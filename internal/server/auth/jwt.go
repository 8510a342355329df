// Package auth gates privileged ledger operations. The HTTP gateway compares
// a raw shared secret; gRPC callers present a short-lived HS256 token signed
// with that secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// AdminSubject is the subject claim of admin tokens.
const AdminSubject = "ledger-admin"

// Claims carries the registered claims plus the role granted by the token.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

const roleAdmin = "admin"

func GenerateAdminToken(secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AdminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Role: roleAdmin,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateAdminToken checks signature, expiry and role. Every failure is
// reported as common.ErrInvalidToken wrapping the cause.
func ValidateAdminToken(tokenString string, secretKey []byte) error {
	return ValidateAdminTokenLifetime(tokenString, secretKey, 0)
}

// ValidateAdminTokenLifetime is ValidateAdminToken that also rejects tokens
// issued for longer than maxLifetime. Zero disables the cap.
func ValidateAdminTokenLifetime(tokenString string, secretKey []byte, maxLifetime time.Duration) error {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: token expired", common.ErrInvalidToken)
		}
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Role != roleAdmin {
		return common.ErrInvalidToken
	}

	if maxLifetime > 0 {
		if claims.IssuedAt == nil || claims.ExpiresAt == nil {
			return fmt.Errorf("%w: missing iat or exp", common.ErrInvalidToken)
		}
		if claims.ExpiresAt.Sub(claims.IssuedAt.Time) > maxLifetime {
			return fmt.Errorf("%w: lifetime exceeds %s", common.ErrInvalidToken, maxLifetime)
		}
	}

	return nil
}

// CheckSharedSecret compares a presented secret with the configured one in
// constant time. An empty configured secret rejects everything.
func CheckSharedSecret(presented, secret string) error {
	if secret == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
		return common.ErrorUnauthorized
	}
	return nil
}
