package keypairs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mayankramina/secure-file-share/internal/common"
	"github.com/mayankramina/secure-file-share/internal/dbx"
	"github.com/mayankramina/secure-file-share/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, pair *models.KeyPair) (*models.KeyPair, error) {
	query := `
		INSERT INTO key_pairs (user_id, public_pem, private_pem)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING;
	`
	if _, err := r.db.ExecContext(ctx, query, pair.UserID, pair.PublicPEM, pair.PrivatePEM); err != nil {
		return nil, fmt.Errorf("creating key pair: %w", err)
	}
	// Re-select so a concurrent creator's pair wins consistently.
	return r.GetByUserID(ctx, pair.UserID)
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.KeyPair, error) {
	query := `SELECT user_id, public_pem, private_pem, created_at FROM key_pairs WHERE user_id=$1`

	pair := &models.KeyPair{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&pair.UserID, &pair.PublicPEM, &pair.PrivatePEM, &pair.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting key pair: %w", err)
	}
	return pair, nil
}
