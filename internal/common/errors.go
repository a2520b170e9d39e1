// Package common defines shared constants and sentinel errors used across
// the deepcheck server and client. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors. The specific token errors wrap ErrInvalidToken.
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenMalformed     = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenExpired       = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenBadSignature  = fmt.Errorf("%w: bad signature", ErrInvalidToken)
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrEmailTaken         = errors.New("email already registered")

	// Analysis pipeline errors.
	ErrInvalidInput         = errors.New("invalid input")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrServiceUnavailable   = errors.New("classifier unavailable")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrClassificationFailed = errors.New("classification failed")
	ErrPersistenceFailed    = errors.New("persistence failed")
)
