package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mayankramina/secure-file-share/internal/logging"
	"github.com/mayankramina/secure-file-share/internal/server/config"
	"github.com/mayankramina/secure-file-share/internal/server/models"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/memory"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.AccessTokenValidityDuration = time.Minute
	return cfg
}

// fakeKMS records access-list changes in call order so tests can check both
// the resulting entries and the sequencing relative to ledger writes.
type fakeKMS struct {
	calls     []string
	entries   map[[2]string]bool
	grantErr  error
	revokeErr error
}

func newFakeKMS() *fakeKMS {
	return &fakeKMS{entries: map[[2]string]bool{}}
}

func (f *fakeKMS) GrantAccess(_ context.Context, keyOwnerID, granteeID string) error {
	if f.grantErr != nil {
		return f.grantErr
	}
	f.calls = append(f.calls, "grant:"+keyOwnerID+":"+granteeID)
	f.entries[[2]string{keyOwnerID, granteeID}] = true
	return nil
}

func (f *fakeKMS) RevokeAccess(_ context.Context, keyOwnerID, granteeID string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.calls = append(f.calls, "revoke:"+keyOwnerID+":"+granteeID)
	delete(f.entries, [2]string{keyOwnerID, granteeID})
	return nil
}

func (f *fakeKMS) hasEntry(keyOwnerID, granteeID string) bool {
	return f.entries[[2]string{keyOwnerID, granteeID}]
}

func seedUser(t *testing.T, m *memory.Manager, username string) *models.User {
	t.Helper()
	u, err := m.Users(nil).Create(context.Background(), &models.User{
		Username:     username,
		PasswordHash: []byte("hash"),
		Salt:         []byte("salt"),
	})
	require.NoError(t, err)
	return u
}

func seedFile(t *testing.T, m *memory.Manager, owner *models.User, name string) *models.FileRecord {
	t.Helper()
	f, err := m.Files(nil).Create(context.Background(), &models.FileRecord{
		OwnerID:    owner.ID,
		FileName:   name,
		StorageKey: "users/test/" + name,
		WrappedKey: "d3JhcHBlZA==",
	})
	require.NoError(t, err)
	return f
}
