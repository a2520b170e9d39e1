package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T, secret string, ttl time.Duration) *TokenService {
	t.Helper()
	s, err := NewTokenService(secret, "HS256", ttl)
	require.NoError(t, err)
	return s
}

func TestIssueAndValidate_Success(t *testing.T) {
	t.Parallel()

	s := newTokenService(t, "super-secret", time.Hour)

	tok, err := s.Issue("alice@example.com")
	require.NoError(t, err)

	sub, err := s.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", sub)
}

func TestValidate_AcceptedUntilExpiry(t *testing.T) {
	t.Parallel()

	s := newTokenService(t, "secret", 30*time.Minute)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	tok, err := s.Issue("bob@example.com")
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(29 * time.Minute) }
	_, err = s.Validate(tok)
	require.NoError(t, err, "token must be valid before expiry")

	s.now = func() time.Time { return start.Add(31 * time.Minute) }
	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := newTokenService(t, "right-secret", time.Hour).Issue("u2")
	require.NoError(t, err)

	_, err = newTokenService(t, "wrong-secret", time.Hour).Validate(tok)
	assert.ErrorIs(t, err, common.ErrTokenBadSignature)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_ExpiredAndWrongSecretIsBadSignature(t *testing.T) {
	t.Parallel()

	issuer := newTokenService(t, "right-secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, err := issuer.Issue("u3")
	require.NoError(t, err)

	_, err = newTokenService(t, "wrong-secret", time.Hour).Validate(tok)
	assert.ErrorIs(t, err, common.ErrTokenBadSignature)
}

func TestValidate_OtherAlgorithmRejected(t *testing.T) {
	t.Parallel()

	hs512, err := NewTokenService("secret", "HS512", time.Hour)
	require.NoError(t, err)
	tok, err := hs512.Issue("u4")
	require.NoError(t, err)

	_, err = newTokenService(t, "secret", time.Hour).Validate(tok)
	assert.ErrorIs(t, err, common.ErrTokenBadSignature)
}

func TestValidate_Malformed(t *testing.T) {
	t.Parallel()

	s := newTokenService(t, "k", time.Hour)
	for _, in := range []string{"", "not.a.jwt", "garbage", strings.Repeat("a", 10) + ".."} {
		_, err := s.Validate(in)
		assert.ErrorIs(t, err, common.ErrTokenMalformed, "input %q", in)
	}
}

func TestValidate_MissingSubjectOrExpiry(t *testing.T) {
	t.Parallel()

	s := newTokenService(t, "k", time.Hour)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = s.Validate(noSub)
	assert.ErrorIs(t, err, common.ErrTokenMalformed)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "x",
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = s.Validate(noExp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestNewTokenService_Validation(t *testing.T) {
	_, err := NewTokenService("", "HS256", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService("k", "RS256", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService("k", "HS256", 0)
	assert.Error(t, err)

	s, err := NewTokenService("k", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "HS256", s.method.Alg())
}
