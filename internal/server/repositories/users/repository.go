package users

import (
	"context"

	"github.com/dmitrijs2005/deepcheck/internal/server/models"
)

// Repository persists accounts. Emails are expected in normalized form.
type Repository interface {
	// Create inserts user and fills ID and CreatedAt. A duplicate email
	// yields common.ErrEmailTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
