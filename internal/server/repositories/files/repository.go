// Package files defines the file-record repository interface and its
// Postgres implementation.
package files

import (
	"context"

	"github.com/mayankramina/secure-file-share/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.FileRecord) (*models.FileRecord, error)
	GetByID(ctx context.Context, id string) (*models.FileRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error)
	Delete(ctx context.Context, id string) error
}
