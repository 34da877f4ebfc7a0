package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mayankramina/secure-file-share/internal/common"
	"github.com/mayankramina/secure-file-share/internal/logging"
	"github.com/mayankramina/secure-file-share/internal/server/auth"
	"github.com/mayankramina/secure-file-share/internal/server/blob"
	"github.com/mayankramina/secure-file-share/internal/server/models"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/repomanager"
)

// FileService stores file records and their ciphertext blobs. The server
// never sees plaintext or raw keys: clients upload IV-prefixed ciphertext
// plus a wrapped key, and the service only gates who may read them back.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	ledger      *ShareService
	kms         AccessController
	logger      logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, ledger *ShareService, kms AccessController, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		ledger:      ledger,
		kms:         kms,
		logger:      logger,
	}
}

func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// SharedFile pairs a file another user shared with the caller with the
// permission the caller holds on it.
type SharedFile struct {
	File       *models.FileRecord
	ShareID    string
	Permission common.Permission
}

// DownloadResult carries everything a client needs to recover plaintext:
// the ciphertext, the wrapped key, and the owner identity the KMS needs to
// select the unwrapping keypair.
type DownloadResult struct {
	FileName      string
	OwnerUsername string
	WrappedKey    string
	CiphertextB64 string
}

// Create persists an uploaded file: ciphertext goes to the blob store, the
// record and wrapped key to the database. If the record cannot be written
// the blob is removed again.
func (s *FileService) Create(ctx context.Context, p auth.Principal, fileName, ciphertextB64, wrappedKey string) (*models.FileRecord, error) {
	if fileName == "" || ciphertextB64 == "" || wrappedKey == "" {
		return nil, fmt.Errorf("%w: file_name, ciphertext and wrapped_key are required", common.ErrValidation)
	}

	data, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext is not valid base64", common.ErrValidation)
	}

	storageKey := GetRandomStorageKey()
	if err := s.blobs.Put(ctx, storageKey, data); err != nil {
		return nil, fmt.Errorf("storing ciphertext: %w", err)
	}

	record, err := s.repomanager.Files(s.db).Create(ctx, &models.FileRecord{
		OwnerID:       p.UserID,
		OwnerUsername: p.Username,
		FileName:      fileName,
		StorageKey:    storageKey,
		WrappedKey:    wrappedKey,
	})
	if err != nil {
		if derr := s.blobs.Delete(ctx, storageKey); derr != nil {
			s.logger.Error(ctx, "orphaned blob cleanup failed", "key", storageKey, "error", derr)
		}
		return nil, err
	}

	s.logger.Info(ctx, "file uploaded", "file", record.ID, "owner", p.Username)
	return record, nil
}

// Get returns a file's metadata together with the caller's access level.
// Any grant is enough to see metadata; no grant means ErrForbidden.
func (s *FileService) Get(ctx context.Context, p auth.Principal, fileID string) (*models.FileRecord, AccessLevel, error) {
	level, err := s.ledger.PermissionFor(ctx, p, fileID)
	if err != nil {
		return nil, "", err
	}
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, "", err
	}
	return file, level, nil
}

// ListOwn returns the caller's own files.
func (s *FileService) ListOwn(ctx context.Context, p auth.Principal) ([]*models.FileRecord, error) {
	return s.repomanager.Files(s.db).ListByOwner(ctx, p.UserID)
}

// SharedWithMe returns the files other users shared with the caller.
// Grants whose file has meanwhile disappeared are skipped.
func (s *FileService) SharedWithMe(ctx context.Context, p auth.Principal) ([]*SharedFile, error) {
	grants, err := s.repomanager.Shares(s.db).ListByGrantee(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	result := make([]*SharedFile, 0, len(grants))
	for _, g := range grants {
		file, err := s.repomanager.Files(s.db).GetByID(ctx, g.FileID)
		if err != nil {
			continue
		}
		result = append(result, &SharedFile{File: file, ShareID: g.ID, Permission: g.Permission})
	}
	return result, nil
}

// Download returns the ciphertext and wrapped key. Only the owner and
// DOWNLOAD grantees may call it; a VIEW grant is not enough.
func (s *FileService) Download(ctx context.Context, p auth.Principal, fileID string) (*DownloadResult, error) {
	level, err := s.ledger.PermissionFor(ctx, p, fileID)
	if err != nil {
		return nil, err
	}
	if !level.CanDownload() {
		return nil, common.ErrForbidden
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	data, err := s.blobs.Get(ctx, file.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("fetching ciphertext: %w", err)
	}

	return &DownloadResult{
		FileName:      file.FileName,
		OwnerUsername: file.OwnerUsername,
		WrappedKey:    file.WrappedKey,
		CiphertextB64: base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Delete removes a file, owner only. Grant rows and share links go with it
// via cascade; KMS entries backing DOWNLOAD grants are revoked and the blob
// is removed best-effort afterwards.
func (s *FileService) Delete(ctx context.Context, p auth.Principal, fileID string) error {
	file, err := s.ledger.ownedFile(ctx, p, fileID)
	if err != nil {
		return err
	}

	grants, err := s.repomanager.Shares(s.db).ListByFile(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.repomanager.Files(s.db).Delete(ctx, fileID); err != nil {
		return err
	}

	for _, g := range grants {
		if g.Permission != common.PermissionDownload {
			continue
		}
		if err := s.kms.RevokeAccess(ctx, file.OwnerID, g.GranteeID); err != nil {
			s.logger.Error(ctx, "kms revoke after delete failed", "owner", file.OwnerID, "grantee", g.GranteeID, "error", err)
		}
	}

	if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
		s.logger.Error(ctx, "blob delete failed", "key", file.StorageKey, "error", err)
	}

	s.logger.Info(ctx, "file deleted", "file", fileID)
	return nil
}
