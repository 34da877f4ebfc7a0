package links

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

func (r *PostgresRepository) Create(ctx context.Context, link *models.ShareLink) error {
	query := `
		INSERT INTO share_links (token, file_id, created_by, expires_at)
		VALUES ($1, $2, $3, $4);
	`
	if _, err := r.db.ExecContext(ctx, query, link.Token, link.FileID, link.CreatedBy, link.ExpiresAt); err != nil {
		return fmt.Errorf("creating share link: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	query := `SELECT token, file_id, created_by, created_at, expires_at FROM share_links WHERE token=$1`

	link := &models.ShareLink{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&link.Token, &link.FileID, &link.CreatedBy, &link.CreatedAt, &link.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting share link: %w", err)
	}
	return link, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM share_links WHERE expires_at IS NOT NULL AND expires_at < now()`); err != nil {
		return fmt.Errorf("deleting expired links: %w", err)
	}
	return nil
}
