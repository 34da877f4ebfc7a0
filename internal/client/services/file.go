// Package services implements the client side of the upload and download
// flows: envelope encryption happens here, so plaintext and raw keys never
// reach the server.
package services

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mayankramina/secure-file-share/internal/client/client"
	"github.com/mayankramina/secure-file-share/internal/client/models"
	"github.com/mayankramina/secure-file-share/internal/cryptox"
)

type FileService struct {
	api client.Client
}

func NewFileService(api client.Client) *FileService {
	return &FileService{api: api}
}

// Upload envelope-encrypts the plaintext and sends it to the server: a
// fresh public key is fetched for every upload, a fresh AES key generated,
// and only the sealed ciphertext plus the wrapped key leave the machine.
// Any failure aborts the whole upload. The raw key is wiped on every exit.
func (s *FileService) Upload(ctx context.Context, fileName string, plaintext []byte) (*models.File, error) {
	pubPEM, err := s.api.GetPublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching public key: %w", err)
	}
	pub, err := cryptox.ParsePublicKey([]byte(pubPEM))
	if err != nil {
		return nil, err
	}

	key, err := cryptox.GenerateFileKey()
	if err != nil {
		return nil, err
	}
	defer cryptox.Wipe(key)

	sealed, err := cryptox.EncryptPayload(plaintext, key)
	if err != nil {
		return nil, err
	}

	wrapped, err := cryptox.WrapKey(key, pub)
	if err != nil {
		return nil, err
	}

	return s.api.UploadFile(ctx, fileName, base64.StdEncoding.EncodeToString(sealed), wrapped)
}

// Download fetches the ciphertext, has the KMS unwrap the file key under
// the uploader's identity, and decrypts locally. The key is wiped on every
// exit; a tampered payload surfaces as common.ErrIntegrity with no partial
// plaintext.
func (s *FileService) Download(ctx context.Context, fileID string) (string, []byte, error) {
	d, err := s.api.DownloadFile(ctx, fileID)
	if err != nil {
		return "", nil, err
	}

	keyB64, err := s.api.DecryptKey(ctx, d.WrappedKey, d.Owner)
	if err != nil {
		return "", nil, fmt.Errorf("unwrapping file key: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return "", nil, fmt.Errorf("decoding file key: %w", err)
	}
	defer cryptox.Wipe(key)

	sealed, err := base64.StdEncoding.DecodeString(d.CiphertextB64)
	if err != nil {
		return "", nil, fmt.Errorf("decoding ciphertext: %w", err)
	}

	plaintext, err := cryptox.DecryptPayload(sealed, key)
	if err != nil {
		return "", nil, err
	}

	return d.FileName, plaintext, nil
}
