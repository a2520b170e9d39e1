// Package auth issues and validates bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService signs and validates HMAC JWTs carrying a subject. The key and
// algorithm are fixed for the lifetime of the process; there is no
// revocation or refresh.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a TokenService. algorithm must be HS256, HS384 or HS512.
func NewTokenService(secret, algorithm string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("empty token secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid token ttl %v", ttl)
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256", "":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported token algorithm %q", algorithm)
	}

	return &TokenService{secret: []byte(secret), method: method, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for subject, valid for the configured TTL.
func (s *TokenService) Issue(subject string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(s.method, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	return token.SignedString(s.secret)
}

// Validate checks signature and expiry and returns the token subject.
// Errors are common.ErrTokenMalformed, common.ErrTokenExpired or
// common.ErrTokenBadSignature, all of which match common.ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", common.ErrTokenBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", common.ErrTokenExpired
		default:
			return "", common.ErrTokenMalformed
		}
	}

	if claims.Subject == "" {
		return "", common.ErrTokenMalformed
	}
	return claims.Subject, nil
}
