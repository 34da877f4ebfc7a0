// Package client provides the typed API client for the file-share backend.
package client

import (
	"context"

	"github.com/mayankramina/secure-file-share/internal/client/models"
)

type Client interface {
	Register(ctx context.Context, username, password string) error
	// Login authenticates and stores the access token for later calls.
	Login(ctx context.Context, username, password string) error

	GetPublicKey(ctx context.Context) (string, error)
	// DecryptKey asks the KMS to unwrap a file key. keyOwner is the
	// username of the file's uploader, not the caller.
	DecryptKey(ctx context.Context, wrappedKey, keyOwner string) (string, error)

	UploadFile(ctx context.Context, fileName, ciphertextB64, wrappedKey string) (*models.File, error)
	DownloadFile(ctx context.Context, fileID string) (*models.Download, error)
	GetFile(ctx context.Context, fileID string) (*models.File, error)
	ListFiles(ctx context.Context) ([]*models.File, error)
	ListSharedWithMe(ctx context.Context) ([]*models.SharedFile, error)
	DeleteFile(ctx context.Context, fileID string) error

	ShareFile(ctx context.Context, fileID, username, permission string) (*models.Share, error)
	ListShares(ctx context.Context, fileID string) ([]*models.Share, error)
	UpdateShare(ctx context.Context, fileID, shareID, permission string) (*models.Share, error)
	RevokeShare(ctx context.Context, fileID, shareID string) error

	GenerateLink(ctx context.Context, fileID string) (*models.Link, error)
	VerifyLink(ctx context.Context, token string) (string, error)
}
