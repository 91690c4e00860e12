package users

import (
	"context"

	"github.com/dmitrijs2005/bankauth/internal/server/models"
)

// Repository stores user accounts. Emails are stored lowercased and are
// unique; Create reports a duplicate as common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
