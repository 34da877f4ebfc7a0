package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayankramina/secure-file-share/internal/common"
	"github.com/mayankramina/secure-file-share/internal/server/auth"
	"github.com/mayankramina/secure-file-share/internal/server/models"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/memory"
)

type shareFixture struct {
	m     *memory.Manager
	kms   *fakeKMS
	svc   *ShareService
	alice *models.User
	bob   *models.User
	file  *models.FileRecord
}

func newShareFixture(t *testing.T) *shareFixture {
	t.Helper()
	m := memory.NewManager()
	kms := newFakeKMS()
	f := &shareFixture{
		m:   m,
		kms: kms,
		svc: NewShareService(nil, m, kms, discardLogger()),
	}
	f.alice = seedUser(t, m, "alice")
	f.bob = seedUser(t, m, "bob")
	f.file = seedFile(t, m, f.alice, "report.pdf")
	return f
}

func principal(u *models.User) auth.Principal {
	return auth.Principal{UserID: u.ID, Username: u.Username}
}

func TestShareService_Grant_View(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	grant, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionView)
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, grant.GranteeID)
	assert.Equal(t, common.PermissionView, grant.Permission)

	// VIEW must not touch the access list.
	assert.Empty(t, f.kms.calls)
	assert.False(t, f.kms.hasEntry(f.alice.ID, f.bob.ID))
}

func TestShareService_Grant_Download(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	grant, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionDownload)
	require.NoError(t, err)
	assert.Equal(t, common.PermissionDownload, grant.Permission)
	assert.True(t, f.kms.hasEntry(f.alice.ID, f.bob.ID))
	assert.Equal(t, []string{"grant:" + f.alice.ID + ":" + f.bob.ID}, f.kms.calls)
}

func TestShareService_Grant_Errors(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	t.Run("non-owner", func(t *testing.T) {
		_, err := f.svc.Grant(ctx, principal(f.bob), f.file.ID, "alice", common.PermissionView)
		assert.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("unknown file", func(t *testing.T) {
		_, err := f.svc.Grant(ctx, principal(f.alice), "nope", "bob", common.PermissionView)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("unknown grantee", func(t *testing.T) {
		_, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "carol", common.PermissionView)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("share with owner", func(t *testing.T) {
		_, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "alice", common.PermissionView)
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("invalid permission", func(t *testing.T) {
		_, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.Permission("ADMIN"))
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionView)
		require.NoError(t, err)
		_, err = f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionDownload)
		assert.ErrorIs(t, err, common.ErrAlreadyExists)
		// The failed second grant must not have left an access entry.
		assert.False(t, f.kms.hasEntry(f.alice.ID, f.bob.ID))
	})
}

func TestShareService_Grant_KMSFailure(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	f.kms.grantErr = errors.New("kms down")

	_, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionDownload)
	require.Error(t, err)

	// No grant row may exist when the KMS could not be updated.
	_, err = f.m.Shares(nil).GetByFileAndGrantee(ctx, f.file.ID, f.bob.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestShareService_Update_Upgrade(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	grant, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionView)
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, principal(f.alice), f.file.ID, grant.ID, common.PermissionDownload)
	require.NoError(t, err)
	assert.Equal(t, common.PermissionDownload, updated.Permission)
	assert.True(t, f.kms.hasEntry(f.alice.ID, f.bob.ID))

	stored, err := f.m.Shares(nil).GetByID(ctx, grant.ID)
	require.NoError(t, err)
	assert.Equal(t, common.PermissionDownload, stored.Permission)
}

func TestShareService_Update_DowngradeRevokesAccess(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	grant, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionDownload)
	require.NoError(t, err)
	require.True(t, f.kms.hasEntry(f.alice.ID, f.bob.ID))

	_, err = f.svc.Update(ctx, principal(f.alice), f.file.ID, grant.ID, common.PermissionView)
	require.NoError(t, err)
	assert.False(t, f.kms.hasEntry(f.alice.ID, f.bob.ID))
}

func TestShareService_Update_NoopAndMismatch(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	grant, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionView)
	require.NoError(t, err)

	t.Run("same permission is a no-op", func(t *testing.T) {
		before := len(f.kms.calls)
		_, err := f.svc.Update(ctx, principal(f.alice), f.file.ID, grant.ID, common.PermissionView)
		require.NoError(t, err)
		assert.Len(t, f.kms.calls, before)
	})

	t.Run("share from another file", func(t *testing.T) {
		other := seedFile(t, f.m, f.alice, "other.txt")
		_, err := f.svc.Update(ctx, principal(f.alice), other.ID, grant.ID, common.PermissionDownload)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("non-owner", func(t *testing.T) {
		_, err := f.svc.Update(ctx, principal(f.bob), f.file.ID, grant.ID, common.PermissionDownload)
		assert.ErrorIs(t, err, common.ErrForbidden)
	})
}

func TestShareService_Revoke(t *testing.T) {
	ctx := context.Background()

	t.Run("download grant revokes access entry", func(t *testing.T) {
		f := newShareFixture(t)
		grant, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionDownload)
		require.NoError(t, err)

		require.NoError(t, f.svc.Revoke(ctx, principal(f.alice), f.file.ID, grant.ID))
		assert.False(t, f.kms.hasEntry(f.alice.ID, f.bob.ID))

		_, err = f.m.Shares(nil).GetByID(ctx, grant.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("view grant still clears kms state", func(t *testing.T) {
		f := newShareFixture(t)
		grant, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionView)
		require.NoError(t, err)

		require.NoError(t, f.svc.Revoke(ctx, principal(f.alice), f.file.ID, grant.ID))
		assert.Contains(t, f.kms.calls, "revoke:"+f.alice.ID+":"+f.bob.ID)
		assert.False(t, f.kms.hasEntry(f.alice.ID, f.bob.ID))
	})

	t.Run("non-owner", func(t *testing.T) {
		f := newShareFixture(t)
		grant, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionView)
		require.NoError(t, err)

		err = f.svc.Revoke(ctx, principal(f.bob), f.file.ID, grant.ID)
		assert.ErrorIs(t, err, common.ErrForbidden)
	})
}

func TestShareService_PermissionFor(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()
	carol := seedUser(t, f.m, "carol")

	_, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionView)
	require.NoError(t, err)

	t.Run("owner", func(t *testing.T) {
		level, err := f.svc.PermissionFor(ctx, principal(f.alice), f.file.ID)
		require.NoError(t, err)
		assert.Equal(t, AccessOwner, level)
		assert.True(t, level.CanDownload())
	})

	t.Run("view grantee", func(t *testing.T) {
		level, err := f.svc.PermissionFor(ctx, principal(f.bob), f.file.ID)
		require.NoError(t, err)
		assert.Equal(t, AccessView, level)
		assert.False(t, level.CanDownload())
	})

	t.Run("stranger", func(t *testing.T) {
		_, err := f.svc.PermissionFor(ctx, principal(carol), f.file.ID)
		assert.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("unknown file", func(t *testing.T) {
		_, err := f.svc.PermissionFor(ctx, principal(f.alice), "nope")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestShareService_Lists(t *testing.T) {
	f := newShareFixture(t)
	ctx := context.Background()

	grant, err := f.svc.Grant(ctx, principal(f.alice), f.file.ID, "bob", common.PermissionDownload)
	require.NoError(t, err)

	byFile, err := f.svc.ListByFile(ctx, principal(f.alice), f.file.ID)
	require.NoError(t, err)
	require.Len(t, byFile, 1)
	assert.Equal(t, grant.ID, byFile[0].ID)

	byFileAsGrantee, err := f.svc.ListByFile(ctx, principal(f.bob), f.file.ID)
	require.NoError(t, err)
	require.Len(t, byFileAsGrantee, 1)

	carol := seedUser(t, f.m, "carol")
	_, err = f.svc.ListByFile(ctx, principal(carol), f.file.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	byGrantee, err := f.svc.ListByGrantee(ctx, principal(f.bob))
	require.NoError(t, err)
	require.Len(t, byGrantee, 1)
	assert.Equal(t, f.file.ID, byGrantee[0].FileID)
}
