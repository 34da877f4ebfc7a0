package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
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

const selectColumns = `s.id, s.file_id, s.grantee_id, u.username, s.permission, s.granted_by, s.created_at`

func (r *PostgresRepository) Create(ctx context.Context, grant *models.ShareGrant) (*models.ShareGrant, error) {
	query := `
		INSERT INTO shares (id, file_id, grantee_id, permission, granted_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at;
	`
	created := *grant
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, query,
		created.ID, created.FileID, created.GranteeID, string(created.Permission), created.GrantedBy).
		Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("creating share: %w", err)
	}
	return &created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.ShareGrant, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM shares s JOIN users u ON u.id = s.grantee_id
		WHERE s.id=$1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByFileAndGrantee(ctx context.Context, fileID, granteeID string) (*models.ShareGrant, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM shares s JOIN users u ON u.id = s.grantee_id
		WHERE s.file_id=$1 AND s.grantee_id=$2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, fileID, granteeID))
}

func (r *PostgresRepository) ListByFile(ctx context.Context, fileID string) ([]*models.ShareGrant, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM shares s JOIN users u ON u.id = s.grantee_id
		WHERE s.file_id=$1
		ORDER BY s.created_at
	`
	return r.list(ctx, query, fileID)
}

func (r *PostgresRepository) ListByGrantee(ctx context.Context, granteeID string) ([]*models.ShareGrant, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM shares s JOIN users u ON u.id = s.grantee_id
		WHERE s.grantee_id=$1
		ORDER BY s.created_at
	`
	return r.list(ctx, query, granteeID)
}

func (r *PostgresRepository) UpdatePermission(ctx context.Context, id string, permission common.Permission) error {
	result, err := r.db.ExecContext(ctx, `UPDATE shares SET permission=$2 WHERE id=$1`, id, string(permission))
	if err != nil {
		return fmt.Errorf("updating share: %w", err)
	}
	return requireOneRow(result)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("deleting share: %w", err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.ShareGrant, error) {
	grant := &models.ShareGrant{}
	var permission string
	err := row.Scan(&grant.ID, &grant.FileID, &grant.GranteeID, &grant.GranteeUsername, &permission, &grant.GrantedBy, &grant.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting share: %w", err)
	}
	grant.Permission = common.Permission(permission)
	return grant, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*models.ShareGrant, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing shares: %w", err)
	}
	defer rows.Close()

	var result []*models.ShareGrant
	for rows.Next() {
		grant := &models.ShareGrant{}
		var permission string
		if err := rows.Scan(&grant.ID, &grant.FileID, &grant.GranteeID, &grant.GranteeUsername, &permission, &grant.GrantedBy, &grant.CreatedAt); err != nil {
			return nil, err
		}
		grant.Permission = common.Permission(permission)
		result = append(result, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
