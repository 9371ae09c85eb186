// Package token issues and validates the bearer tokens that carry a caller
// principal. The ledger treats principals as opaque; this is the only place
// that knows they arrive as JWT subjects.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "agritrace/pkg/domain"
	dErrors "agritrace/pkg/domain-errors"
)

const issuer = "agritrace"

// Service handles JWT creation and validation. Tokens are HMAC-signed; the
// sub claim is the principal.
type Service struct {
	signingKey []byte
}

// NewService constructs a token service from the shared signing key.
func NewService(signingKey string) *Service {
	return &Service{signingKey: []byte(signingKey)}
}

// Issue signs a token for the principal, valid for expiresIn.
func (s *Service) Issue(principal id.Principal, expiresIn time.Duration) (string, error) {
	if principal.IsZero() {
		return "", dErrors.New(dErrors.CodeValidation, "principal is required")
	}
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   principal.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
		ID:        uuid.NewString(),
	})
	return newToken.SignedString(s.signingKey)
}

// Validate parses the token and returns the caller principal.
func (s *Service) Validate(tokenString string) (id.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	principal, err := id.ParsePrincipal(claims.Subject)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	return principal, nil
}
