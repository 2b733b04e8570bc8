// Package users is the credential store: persistence of user accounts with
// uniqueness of username and email.
package users

import (
	"context"

	"github.com/dmitrijs2005/clipshare/internal/server/models"
)

// Repository stores users. Lookups return common.ErrorNotFound when nothing
// matches; Create returns common.ErrorAlreadyExists when username or email
// is taken.
type Repository interface {
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	IncrementVideoCount(ctx context.Context, id string) error
}
