package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mayankramina/secure-file-share/internal/common"
	"github.com/mayankramina/secure-file-share/internal/logging"
	"github.com/mayankramina/secure-file-share/internal/server/auth"
	"github.com/mayankramina/secure-file-share/internal/server/models"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/repomanager"
)

// AccessController is the slice of the KMS the share ledger drives: adding
// and removing (key owner, grantee) entries on the KMS access list. Both
// operations are idempotent.
type AccessController interface {
	GrantAccess(ctx context.Context, keyOwnerID, granteeID string) error
	RevokeAccess(ctx context.Context, keyOwnerID, granteeID string) error
}

// AccessLevel is a caller's effective access to a file: owner, a share
// permission, or nothing.
type AccessLevel string

const (
	AccessOwner    AccessLevel = "OWNER"
	AccessView     AccessLevel = AccessLevel(common.PermissionView)
	AccessDownload AccessLevel = AccessLevel(common.PermissionDownload)
)

// CanDownload reports whether the level allows fetching ciphertext.
func (l AccessLevel) CanDownload() bool {
	return l == AccessOwner || l == AccessDownload
}

// ShareService maintains share grants and keeps the KMS access list in
// lockstep with them: a DOWNLOAD grant always has a matching access entry,
// and anything less never does. KMS changes happen before the grant row is
// written, so a failed persist never leaves the grantee able to unwrap keys
// without a recorded grant.
type ShareService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	kms         AccessController
	logger      logging.Logger
}

func NewShareService(db *sql.DB, m repomanager.RepositoryManager, kms AccessController, logger logging.Logger) *ShareService {
	return &ShareService{db: db, repomanager: m, kms: kms, logger: logger}
}

// Grant shares the file with the named user. Only the owner may share, a
// file cannot be shared with its owner, and a second grant for the same
// grantee fails with ErrAlreadyExists.
func (s *ShareService) Grant(ctx context.Context, p auth.Principal, fileID, granteeUsername string, permission common.Permission) (*models.ShareGrant, error) {
	if !permission.Valid() {
		return nil, fmt.Errorf("%w: unknown permission %q", common.ErrValidation, permission)
	}

	file, err := s.ownedFile(ctx, p, fileID)
	if err != nil {
		return nil, err
	}

	grantee, err := s.repomanager.Users(s.db).GetByUsername(ctx, granteeUsername)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: no such user %q", common.ErrNotFound, granteeUsername)
		}
		return nil, err
	}
	if grantee.ID == file.OwnerID {
		return nil, fmt.Errorf("%w: cannot share a file with its owner", common.ErrValidation)
	}

	if _, err := s.repomanager.Shares(s.db).GetByFileAndGrantee(ctx, fileID, grantee.ID); err == nil {
		return nil, common.ErrAlreadyExists
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	// A DOWNLOAD grant without a KMS entry would be a dead grant, so the
	// KMS is updated first and rolled back if the row cannot be written.
	if permission == common.PermissionDownload {
		if err := s.kms.GrantAccess(ctx, file.OwnerID, grantee.ID); err != nil {
			return nil, fmt.Errorf("granting kms access: %w", err)
		}
	}

	grant, err := s.repomanager.Shares(s.db).Create(ctx, &models.ShareGrant{
		FileID:     fileID,
		GranteeID:  grantee.ID,
		Permission: permission,
		GrantedBy:  p.UserID,
	})
	if err != nil {
		if permission == common.PermissionDownload {
			if rerr := s.kms.RevokeAccess(ctx, file.OwnerID, grantee.ID); rerr != nil {
				s.logger.Error(ctx, "compensating kms revoke failed", "owner", file.OwnerID, "grantee", grantee.ID, "error", rerr)
			}
		}
		return nil, err
	}

	grant.GranteeUsername = grantee.Username
	s.logger.Info(ctx, "share granted", "file", fileID, "grantee", grantee.Username, "permission", permission)
	return grant, nil
}

// Update changes an existing grant's permission. Upgrading to DOWNLOAD adds
// the KMS entry before the row changes; downgrading removes the entry first,
// so a failure can only ever leave the grantee with less access than the
// ledger records, never more.
func (s *ShareService) Update(ctx context.Context, p auth.Principal, fileID, shareID string, permission common.Permission) (*models.ShareGrant, error) {
	if !permission.Valid() {
		return nil, fmt.Errorf("%w: unknown permission %q", common.ErrValidation, permission)
	}

	file, err := s.ownedFile(ctx, p, fileID)
	if err != nil {
		return nil, err
	}

	grant, err := s.repomanager.Shares(s.db).GetByID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if grant.FileID != fileID {
		return nil, common.ErrNotFound
	}
	if grant.Permission == permission {
		return grant, nil
	}

	switch permission {
	case common.PermissionDownload:
		if err := s.kms.GrantAccess(ctx, file.OwnerID, grant.GranteeID); err != nil {
			return nil, fmt.Errorf("granting kms access: %w", err)
		}
		if err := s.repomanager.Shares(s.db).UpdatePermission(ctx, shareID, permission); err != nil {
			if rerr := s.kms.RevokeAccess(ctx, file.OwnerID, grant.GranteeID); rerr != nil {
				s.logger.Error(ctx, "compensating kms revoke failed", "owner", file.OwnerID, "grantee", grant.GranteeID, "error", rerr)
			}
			return nil, err
		}
	default:
		if err := s.kms.RevokeAccess(ctx, file.OwnerID, grant.GranteeID); err != nil {
			return nil, fmt.Errorf("revoking kms access: %w", err)
		}
		if err := s.repomanager.Shares(s.db).UpdatePermission(ctx, shareID, permission); err != nil {
			return nil, err
		}
	}

	grant.Permission = permission
	s.logger.Info(ctx, "share updated", "file", fileID, "share", shareID, "permission", permission)
	return grant, nil
}

// Revoke removes a grant. The KMS entry is cleared first, and always,
// regardless of the grant's permission: RevokeAccess is idempotent, and an
// unconditional revoke cannot leave a stale entry behind.
func (s *ShareService) Revoke(ctx context.Context, p auth.Principal, fileID, shareID string) error {
	file, err := s.ownedFile(ctx, p, fileID)
	if err != nil {
		return err
	}

	grant, err := s.repomanager.Shares(s.db).GetByID(ctx, shareID)
	if err != nil {
		return err
	}
	if grant.FileID != fileID {
		return common.ErrNotFound
	}

	if err := s.kms.RevokeAccess(ctx, file.OwnerID, grant.GranteeID); err != nil {
		return fmt.Errorf("revoking kms access: %w", err)
	}

	if err := s.repomanager.Shares(s.db).Delete(ctx, shareID); err != nil {
		return err
	}

	s.logger.Info(ctx, "share revoked", "file", fileID, "share", shareID)
	return nil
}

// ListByFile returns the grants on a file. The owner and anyone holding a
// grant may list; everyone else gets ErrForbidden.
func (s *ShareService) ListByFile(ctx context.Context, p auth.Principal, fileID string) ([]*models.ShareGrant, error) {
	if _, err := s.PermissionFor(ctx, p, fileID); err != nil {
		return nil, err
	}
	return s.repomanager.Shares(s.db).ListByFile(ctx, fileID)
}

// ListByGrantee returns the grants held by the caller.
func (s *ShareService) ListByGrantee(ctx context.Context, p auth.Principal) ([]*models.ShareGrant, error) {
	return s.repomanager.Shares(s.db).ListByGrantee(ctx, p.UserID)
}

// PermissionFor resolves the caller's access level on a file. It returns
// ErrNotFound for an unknown file and ErrForbidden when the caller has no
// grant on it.
func (s *ShareService) PermissionFor(ctx context.Context, p auth.Principal, fileID string) (AccessLevel, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	if file.OwnerID == p.UserID {
		return AccessOwner, nil
	}

	grant, err := s.repomanager.Shares(s.db).GetByFileAndGrantee(ctx, fileID, p.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrForbidden
		}
		return "", err
	}
	return AccessLevel(grant.Permission), nil
}

// ownedFile loads the file and checks the caller owns it.
func (s *ShareService) ownedFile(ctx context.Context, p auth.Principal, fileID string) (*models.FileRecord, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != p.UserID {
		return nil, common.ErrForbidden
	}
	return file, nil
}
