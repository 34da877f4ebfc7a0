// Package access defines the KMS access-list repository interface and its
// Postgres implementation.
package access

import "context"

type Repository interface {
	// Grant records that grantee may unwrap keys owned by keyOwner.
	// Granting an existing entry is a no-op.
	Grant(ctx context.Context, keyOwnerID, granteeID string) error
	// Revoke removes the entry. Revoking a missing entry is a no-op.
	Revoke(ctx context.Context, keyOwnerID, granteeID string) error
	Exists(ctx context.Context, keyOwnerID, granteeID string) (bool, error)
}
