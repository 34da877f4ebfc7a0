// Package shares defines the share-grant repository interface and its
// Postgres implementation.
package shares

import (
	"context"

	"github.com/mayankramina/secure-file-share/internal/common"
	"github.com/mayankramina/secure-file-share/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, grant *models.ShareGrant) (*models.ShareGrant, error)
	GetByID(ctx context.Context, id string) (*models.ShareGrant, error)
	GetByFileAndGrantee(ctx context.Context, fileID, granteeID string) (*models.ShareGrant, error)
	ListByFile(ctx context.Context, fileID string) ([]*models.ShareGrant, error)
	ListByGrantee(ctx context.Context, granteeID string) ([]*models.ShareGrant, error)
	UpdatePermission(ctx context.Context, id string, permission common.Permission) error
	Delete(ctx context.Context, id string) error
}
