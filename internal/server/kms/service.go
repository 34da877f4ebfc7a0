// Package kms implements the key-management service: it custodies per-user
// RSA key pairs, serves public keys for wrapping, and unwraps file keys only
// for callers on the key owner's access list. Private keys never leave this
// package; the rest of the system talks to it in terms of wrap/unwrap/
// grant/revoke.
package kms

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/mayankramina/secure-file-share/internal/common"
	"github.com/mayankramina/secure-file-share/internal/cryptox"
	"github.com/mayankramina/secure-file-share/internal/logging"
	"github.com/mayankramina/secure-file-share/internal/server/models"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/repomanager"
)

const keySize = 2048

type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *Service {
	return &Service{db: db, repomanager: m, logger: logger.With("module", "kms")}
}

// GetOrCreatePublicKey returns the PEM public key for the user, generating
// and persisting a key pair on first use. Clients call this fresh before
// every upload; the key is never cached on their side.
func (s *Service) GetOrCreatePublicKey(ctx context.Context, userID string) (string, error) {
	repo := s.repomanager.KeyPairs(s.db)

	pair, err := repo.GetByUserID(ctx, userID)
	if err == nil {
		return pair.PublicPEM, nil
	}
	if !isNotFound(err) {
		return "", fmt.Errorf("loading key pair: %w", err)
	}

	pair, err = s.generateKeyPair(ctx, userID)
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "generated key pair", "user_id", userID)
	return pair.PublicPEM, nil
}

// Decrypt unwraps a base64 wrapped key with the key owner's private key.
// The key owner is identified by the *file's uploader*, not the caller; the
// caller is authorized only if it is the owner or holds an access entry for
// the owner. Unauthorized callers get common.ErrUnauthorized without any
// hint about the key. The unwrapped key is returned base64-encoded.
func (s *Service) Decrypt(ctx context.Context, callerID, wrappedB64, keyOwnerUsername string) (string, error) {
	owner, err := s.repomanager.Users(s.db).GetByUsername(ctx, keyOwnerUsername)
	if err != nil {
		if isNotFound(err) {
			return "", common.ErrUnauthorized
		}
		return "", fmt.Errorf("resolving key owner: %w", err)
	}

	if callerID != owner.ID {
		allowed, err := s.repomanager.Access(s.db).Exists(ctx, owner.ID, callerID)
		if err != nil {
			return "", fmt.Errorf("checking access list: %w", err)
		}
		if !allowed {
			s.logger.Warn(ctx, "unwrap refused", "key_owner", owner.ID, "caller", callerID)
			return "", common.ErrUnauthorized
		}
	}

	pair, err := s.repomanager.KeyPairs(s.db).GetByUserID(ctx, owner.ID)
	if err != nil {
		if isNotFound(err) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("loading key pair: %w", err)
	}

	priv, err := parsePrivateKey(pair.PrivatePEM)
	if err != nil {
		return "", err
	}

	key, err := cryptox.UnwrapKey(wrappedB64, priv)
	if err != nil {
		return "", err
	}
	defer cryptox.Wipe(key)

	return base64.StdEncoding.EncodeToString(key), nil
}

// GrantAccess adds (keyOwner, grantee) to the access list. Idempotent.
func (s *Service) GrantAccess(ctx context.Context, keyOwnerID, granteeID string) error {
	if err := s.repomanager.Access(s.db).Grant(ctx, keyOwnerID, granteeID); err != nil {
		return err
	}
	s.logger.Info(ctx, "access granted", "key_owner", keyOwnerID, "grantee", granteeID)
	return nil
}

// RevokeAccess removes (keyOwner, grantee) from the access list. Idempotent:
// revoking an absent entry succeeds.
func (s *Service) RevokeAccess(ctx context.Context, keyOwnerID, granteeID string) error {
	if err := s.repomanager.Access(s.db).Revoke(ctx, keyOwnerID, granteeID); err != nil {
		return err
	}
	s.logger.Info(ctx, "access revoked", "key_owner", keyOwnerID, "grantee", granteeID)
	return nil
}

func (s *Service) generateKeyPair(ctx context.Context, userID string) (*models.KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, fmt.Errorf("generating rsa key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshaling private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshaling public key: %w", err)
	}

	pair := &models.KeyPair{
		UserID:     userID,
		PrivatePEM: string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})),
		PublicPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
	}

	// Create is idempotent; on a concurrent race the stored pair wins.
	stored, err := s.repomanager.KeyPairs(s.db).Create(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("storing key pair: %w", err)
	}
	return stored, nil
}

func parsePrivateKey(pemKey string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, fmt.Errorf("%w: no pem block", common.ErrKeyFormat)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyFormat, err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an rsa key", common.ErrKeyFormat)
	}
	return priv, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
