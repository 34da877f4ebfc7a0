// Package links defines the share-link repository interface and its
// Postgres implementation.
package links

import (
	"context"

	"github.com/mayankramina/secure-file-share/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, link *models.ShareLink) error
	GetByToken(ctx context.Context, token string) (*models.ShareLink, error)
	DeleteExpired(ctx context.Context) error
}
