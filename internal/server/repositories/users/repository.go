// Package users defines the user repository interface and its Postgres
// implementation.
package users

import (
	"context"

	"github.com/mayankramina/secure-file-share/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
