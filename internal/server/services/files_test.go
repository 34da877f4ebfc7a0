package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayankramina/secure-file-share/internal/common"
	"github.com/mayankramina/secure-file-share/internal/dbx"
	"github.com/mayankramina/secure-file-share/internal/server/blob"
	"github.com/mayankramina/secure-file-share/internal/server/models"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/files"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/memory"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/repomanager"
)

type fileFixture struct {
	m     *memory.Manager
	kms   *fakeKMS
	blobs *blob.MemoryStore
	svc   *FileService
	alice *models.User
	bob   *models.User
}

func newFileFixture(t *testing.T) *fileFixture {
	t.Helper()
	m := memory.NewManager()
	kms := newFakeKMS()
	blobs := blob.NewMemoryStore()
	ledger := NewShareService(nil, m, kms, discardLogger())
	f := &fileFixture{
		m:     m,
		kms:   kms,
		blobs: blobs,
		svc:   NewFileService(nil, m, blobs, ledger, kms, discardLogger()),
	}
	f.alice = seedUser(t, m, "alice")
	f.bob = seedUser(t, m, "bob")
	return f
}

func (f *fileFixture) ledger() *ShareService { return f.svc.ledger }

func TestFileService_Create(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	ciphertext := []byte("iv-and-sealed-bytes")
	record, err := f.svc.Create(ctx, principal(f.alice), "notes.txt",
		base64.StdEncoding.EncodeToString(ciphertext), "d3JhcHBlZA==")
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, f.alice.ID, record.OwnerID)
	assert.Equal(t, "alice", record.OwnerUsername)
	assert.Equal(t, "notes.txt", record.FileName)

	stored, err := f.blobs.Get(ctx, record.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, ciphertext, stored)
}

func TestFileService_Create_Validation(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, principal(f.alice), "", "AAAA", "d3JhcHBlZA==")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.svc.Create(ctx, principal(f.alice), "notes.txt", "not base64!!!", "d3JhcHBlZA==")
	assert.ErrorIs(t, err, common.ErrValidation)
}

// failingFilesManager wraps a manager so that file-record writes fail while
// everything else keeps working.
type failingFilesManager struct {
	repomanager.RepositoryManager
	err error
}

func (m *failingFilesManager) Files(db dbx.DBTX) files.Repository {
	return &failingFilesRepo{err: m.err}
}

type failingFilesRepo struct{ err error }

func (r *failingFilesRepo) Create(context.Context, *models.FileRecord) (*models.FileRecord, error) {
	return nil, r.err
}
func (r *failingFilesRepo) GetByID(context.Context, string) (*models.FileRecord, error) {
	return nil, r.err
}
func (r *failingFilesRepo) ListByOwner(context.Context, string) ([]*models.FileRecord, error) {
	return nil, r.err
}
func (r *failingFilesRepo) Delete(context.Context, string) error { return r.err }

func TestFileService_Create_RemovesBlobOnRecordFailure(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	failing := &failingFilesManager{RepositoryManager: m, err: errors.New("insert failed")}
	kms := newFakeKMS()
	blobs := blob.NewMemoryStore()
	ledger := NewShareService(nil, failing, kms, discardLogger())
	svc := NewFileService(nil, failing, blobs, ledger, kms, discardLogger())

	alice := seedUser(t, m, "alice")

	_, err := svc.Create(ctx, principal(alice), "notes.txt",
		base64.StdEncoding.EncodeToString([]byte("data")), "d3JhcHBlZA==")
	require.Error(t, err)

	// The orphaned blob must have been cleaned up again.
	assert.Empty(t, blobs.Keys())
}

func TestFileService_Download_PermissionGating(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	ciphertext := []byte("sealed")
	record, err := f.svc.Create(ctx, principal(f.alice), "notes.txt",
		base64.StdEncoding.EncodeToString(ciphertext), "d3JhcHBlZA==")
	require.NoError(t, err)

	t.Run("owner", func(t *testing.T) {
		res, err := f.svc.Download(ctx, principal(f.alice), record.ID)
		require.NoError(t, err)
		assert.Equal(t, base64.StdEncoding.EncodeToString(ciphertext), res.CiphertextB64)
		assert.Equal(t, "alice", res.OwnerUsername)
		assert.Equal(t, "d3JhcHBlZA==", res.WrappedKey)
	})

	t.Run("stranger", func(t *testing.T) {
		_, err := f.svc.Download(ctx, principal(f.bob), record.ID)
		assert.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("view grantee", func(t *testing.T) {
		grant, err := f.ledger().Grant(ctx, principal(f.alice), record.ID, "bob", common.PermissionView)
		require.NoError(t, err)

		_, err = f.svc.Download(ctx, principal(f.bob), record.ID)
		assert.ErrorIs(t, err, common.ErrForbidden)

		_, err = f.ledger().Update(ctx, principal(f.alice), record.ID, grant.ID, common.PermissionDownload)
		require.NoError(t, err)

		res, err := f.svc.Download(ctx, principal(f.bob), record.ID)
		require.NoError(t, err)
		assert.Equal(t, base64.StdEncoding.EncodeToString(ciphertext), res.CiphertextB64)
	})
}

func TestFileService_GetAndLists(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	record, err := f.svc.Create(ctx, principal(f.alice), "notes.txt",
		base64.StdEncoding.EncodeToString([]byte("sealed")), "d3JhcHBlZA==")
	require.NoError(t, err)

	_, err = f.ledger().Grant(ctx, principal(f.alice), record.ID, "bob", common.PermissionView)
	require.NoError(t, err)

	t.Run("get with level", func(t *testing.T) {
		got, level, err := f.svc.Get(ctx, principal(f.bob), record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, got.ID)
		assert.Equal(t, AccessView, level)
	})

	t.Run("own files", func(t *testing.T) {
		own, err := f.svc.ListOwn(ctx, principal(f.alice))
		require.NoError(t, err)
		require.Len(t, own, 1)
		assert.Equal(t, record.ID, own[0].ID)

		own, err = f.svc.ListOwn(ctx, principal(f.bob))
		require.NoError(t, err)
		assert.Empty(t, own)
	})

	t.Run("shared with me", func(t *testing.T) {
		shared, err := f.svc.SharedWithMe(ctx, principal(f.bob))
		require.NoError(t, err)
		require.Len(t, shared, 1)
		assert.Equal(t, record.ID, shared[0].File.ID)
		assert.Equal(t, common.PermissionView, shared[0].Permission)
	})
}

func TestFileService_Delete(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	record, err := f.svc.Create(ctx, principal(f.alice), "notes.txt",
		base64.StdEncoding.EncodeToString([]byte("sealed")), "d3JhcHBlZA==")
	require.NoError(t, err)

	grant, err := f.ledger().Grant(ctx, principal(f.alice), record.ID, "bob", common.PermissionDownload)
	require.NoError(t, err)
	require.True(t, f.kms.hasEntry(f.alice.ID, f.bob.ID))

	t.Run("non-owner", func(t *testing.T) {
		err := f.svc.Delete(ctx, principal(f.bob), record.ID)
		assert.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("owner", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(ctx, principal(f.alice), record.ID))

		_, err := f.m.Files(nil).GetByID(ctx, record.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)

		_, err = f.m.Shares(nil).GetByID(ctx, grant.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)

		assert.False(t, f.kms.hasEntry(f.alice.ID, f.bob.ID))
		assert.Empty(t, f.blobs.Keys())
	})
}
