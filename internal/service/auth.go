// Package service contains the discovery controllers and the per-account service built on them.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/discokeeper/internal/errs"
)

// TokenService issues and verifies the bearer tokens of the RPC API. The subject is the account ID.
type TokenService interface {
	Issue(accountID uuid.UUID) (token string, expiresAt time.Time, err error)
	Verify(token string) (uuid.UUID, error)
}

type TokenServiceImpl struct {
	signKey   []byte
	accessTTL time.Duration
	leeway    time.Duration
	now       func() time.Time
}

var _ TokenService = (*TokenServiceImpl)(nil)

// NewTokenService constructs a TokenService signing HS256 tokens with signKey.
func NewTokenService(signKey []byte, accessTTL time.Duration) *TokenServiceImpl {
	return &TokenServiceImpl{signKey: signKey, accessTTL: accessTTL, leeway: 30 * time.Second, now: time.Now}
}

// Issue creates a signed HS256 JWT for the given account.
func (s *TokenServiceImpl) Issue(accountID uuid.UUID) (string, time.Time, error) {
	if accountID == uuid.Nil {
		return "", time.Time{}, errors.New("validation: empty account id")
	}
	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

// Verify checks signature, algorithm and time claims and returns the subject as an account ID.
// Every failure wraps errs.ErrUnauthorized.
func (s *TokenServiceImpl) Verify(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithLeeway(s.leeway), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return uuid.Nil, fmt.Errorf("invalid token: %w", errs.ErrUnauthorized)
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("bad subject: %w", errs.ErrUnauthorized)
	}
	return id, nil
}
