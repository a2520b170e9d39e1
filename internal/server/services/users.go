// Package services contains server-side business logic: account
// registration and login, the image analysis pipeline and history reads.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"github.com/dmitrijs2005/deepcheck/internal/dbx"
	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"github.com/dmitrijs2005/deepcheck/internal/server/auth"
	"github.com/dmitrijs2005/deepcheck/internal/server/models"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/deepcheck/internal/shared"
)

const minPasswordLen = 6

// UserService provides authentication-related operations:
// - Register: create accounts keyed by normalized email
// - Login: verify credentials and mint an access token
// - Authenticate: resolve a bearer token to a live user
type UserService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenService
	log         logging.Logger
}

func NewUserService(db dbx.DBTX, m repomanager.RepositoryManager, hasher *auth.PasswordHasher,
	tokens *auth.TokenService, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		log:         log,
	}
}

// Register creates an account. The email is normalized before the
// uniqueness check; a duplicate yields common.ErrEmailTaken.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = shared.NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrEmailTaken
	case !errors.Is(err, common.ErrorNotFound):
		s.log.Error(ctx, "user lookup failed", "email", email, "error", err)
		return nil, common.ErrorInternal
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		s.log.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	// The unique index decides races between concurrent registrations.
	u, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, common.ErrEmailTaken
		}
		s.log.Error(ctx, "user create failed", "email", email, "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies credentials and returns a signed access token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	email = shared.NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.BurnPasswordCheck(password)
			return "", common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "user lookup failed", "email", email, "error", err)
		return "", common.ErrorInternal
	}

	if !s.hasher.CheckPassword(user.PasswordHash, password) {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		s.log.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return "", common.ErrorInternal
	}
	return token, nil
}

// Authenticate validates token and loads its subject. A valid token whose
// user no longer exists yields common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	email, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.log.Error(ctx, "user lookup failed", "email", email, "error", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}

func validateCredentials(email, password string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email address", common.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrInvalidInput, minPasswordLen)
	}
	if len(password) > auth.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrInvalidInput, auth.MaxPasswordBytes)
	}
	return nil
}
