package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
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

const selectColumns = `f.id, f.owner_id, u.username, f.file_name, f.storage_key, f.wrapped_key, f.created_at`

func (r *PostgresRepository) Create(ctx context.Context, file *models.FileRecord) (*models.FileRecord, error) {
	query := `
		INSERT INTO files (id, owner_id, file_name, storage_key, wrapped_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at;
	`
	created := *file
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, query,
		created.ID, created.OwnerID, created.FileName, created.StorageKey, created.WrappedKey).
		Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating file record: %w", err)
	}
	return &created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.FileRecord, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM files f JOIN users u ON u.id = f.owner_id
		WHERE f.id=$1
	`
	file := &models.FileRecord{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&file.ID, &file.OwnerID, &file.OwnerUsername, &file.FileName, &file.StorageKey, &file.WrappedKey, &file.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting file: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM files f JOIN users u ON u.id = f.owner_id
		WHERE f.owner_id=$1
		ORDER BY f.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		file := &models.FileRecord{}
		if err := rows.Scan(&file.ID, &file.OwnerID, &file.OwnerUsername, &file.FileName, &file.StorageKey, &file.WrappedKey, &file.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
