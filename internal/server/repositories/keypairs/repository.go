// Package keypairs defines the KMS key-pair repository interface and its
// Postgres implementation. Rows in this table contain private key material;
// only the kms package reads them.
package keypairs

import (
	"context"

	"github.com/mayankramina/secure-file-share/internal/server/models"
)

type Repository interface {
	// Create stores a key pair for a user. If one already exists the call
	// is a no-op and the stored pair is returned, so concurrent lazy
	// creation converges on a single pair.
	Create(ctx context.Context, pair *models.KeyPair) (*models.KeyPair, error)
	GetByUserID(ctx context.Context, userID string) (*models.KeyPair, error)
}
