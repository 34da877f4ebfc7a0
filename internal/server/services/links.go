package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mayankramina/secure-file-share/internal/common"
	"github.com/mayankramina/secure-file-share/internal/cryptox"
	"github.com/mayankramina/secure-file-share/internal/logging"
	"github.com/mayankramina/secure-file-share/internal/server/auth"
	"github.com/mayankramina/secure-file-share/internal/server/config"
	"github.com/mayankramina/secure-file-share/internal/server/models"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/repomanager"
)

// linkTokenBytes gives 32 hex characters, 128 bits of entropy.
const linkTokenBytes = 16

// LinkService issues and resolves opaque share-link tokens. A link only
// maps a token to a file id; whoever follows it still goes through the
// normal permission check.
type LinkService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	baseURL     string
	validity    time.Duration
	logger      logging.Logger
}

func NewLinkService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *LinkService {
	return &LinkService{
		db:          db,
		repomanager: m,
		baseURL:     strings.TrimRight(cfg.LinkBaseURL, "/"),
		validity:    cfg.LinkValidityDuration,
		logger:      logger,
	}
}

// Generate mints a new link for the file, owner only. Each call produces a
// fresh token; earlier tokens stay valid until they expire.
func (s *LinkService) Generate(ctx context.Context, p auth.Principal, fileID string) (*models.ShareLink, string, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, "", err
	}
	if file.OwnerID != p.UserID {
		return nil, "", common.ErrForbidden
	}

	token, err := cryptox.RandHex(linkTokenBytes)
	if err != nil {
		return nil, "", fmt.Errorf("generating token: %w", err)
	}

	link := &models.ShareLink{
		Token:     token,
		FileID:    fileID,
		CreatedBy: p.UserID,
	}
	if s.validity > 0 {
		expires := time.Now().Add(s.validity)
		link.ExpiresAt = &expires
	}

	if err := s.repomanager.Links(s.db).Create(ctx, link); err != nil {
		return nil, "", err
	}

	s.logger.Info(ctx, "share link generated", "file", fileID)
	return link, s.baseURL + "/share/" + token, nil
}

// Resolve maps a token back to its file id. Unknown and expired tokens are
// both reported as ErrInvalidToken; resolution grants no access by itself.
func (s *LinkService) Resolve(ctx context.Context, token string) (string, error) {
	link, err := s.repomanager.Links(s.db).GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidToken
		}
		return "", err
	}
	if link.Expired(time.Now()) {
		return "", common.ErrInvalidToken
	}
	return link.FileID, nil
}

// PurgeExpired removes expired links, for periodic cleanup.
func (s *LinkService) PurgeExpired(ctx context.Context) error {
	return s.repomanager.Links(s.db).DeleteExpired(ctx)
}
