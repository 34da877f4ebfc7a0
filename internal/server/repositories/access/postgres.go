package access

import (
	"context"
	"fmt"

	"github.com/mayankramina/secure-file-share/internal/dbx"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Grant(ctx context.Context, keyOwnerID, granteeID string) error {
	query := `
		INSERT INTO kms_access_entries (key_owner_id, grantee_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING;
	`
	if _, err := r.db.ExecContext(ctx, query, keyOwnerID, granteeID); err != nil {
		return fmt.Errorf("granting kms access: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, keyOwnerID, granteeID string) error {
	query := `DELETE FROM kms_access_entries WHERE key_owner_id=$1 AND grantee_id=$2`
	if _, err := r.db.ExecContext(ctx, query, keyOwnerID, granteeID); err != nil {
		return fmt.Errorf("revoking kms access: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, keyOwnerID, granteeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM kms_access_entries WHERE key_owner_id=$1 AND grantee_id=$2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, keyOwnerID, granteeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking kms access: %w", err)
	}
	return exists, nil
}
