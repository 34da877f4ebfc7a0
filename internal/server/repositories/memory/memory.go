// Package memory provides an in-memory RepositoryManager used in tests and
// for running the server without Postgres. All repositories share one store
// guarded by a single mutex; the db handle arguments are ignored.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mayankramina/secure-file-share/internal/common"
	"github.com/mayankramina/secure-file-share/internal/dbx"
	"github.com/mayankramina/secure-file-share/internal/server/models"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/access"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/files"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/keypairs"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/links"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/shares"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/users"
)

type store struct {
	mu       sync.Mutex
	users    map[string]*models.User
	files    map[string]*models.FileRecord
	shares   map[string]*models.ShareGrant
	links    map[string]*models.ShareLink
	keypairs map[string]*models.KeyPair
	access   map[[2]string]*models.AccessEntry
}

// Manager implements repomanager.RepositoryManager in memory.
type Manager struct {
	s *store
}

func NewManager() *Manager {
	return &Manager{s: &store{
		users:    make(map[string]*models.User),
		files:    make(map[string]*models.FileRecord),
		shares:   make(map[string]*models.ShareGrant),
		links:    make(map[string]*models.ShareLink),
		keypairs: make(map[string]*models.KeyPair),
		access:   make(map[[2]string]*models.AccessEntry),
	}}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository       { return &usersRepo{m.s} }
func (m *Manager) Files(dbx.DBTX) files.Repository       { return &filesRepo{m.s} }
func (m *Manager) Shares(dbx.DBTX) shares.Repository     { return &sharesRepo{m.s} }
func (m *Manager) Links(dbx.DBTX) links.Repository       { return &linksRepo{m.s} }
func (m *Manager) KeyPairs(dbx.DBTX) keypairs.Repository { return &keypairsRepo{m.s} }
func (m *Manager) Access(dbx.DBTX) access.Repository     { return &accessRepo{m.s} }

// --- users ---

type usersRepo struct{ s *store }

func (r *usersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return nil, common.ErrAlreadyExists
		}
	}
	created := *user
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now()
	r.s.users[created.ID] = &created
	out := created
	return &out, nil
}

func (r *usersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *usersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

// --- files ---

type filesRepo struct{ s *store }

func (r *filesRepo) Create(_ context.Context, file *models.FileRecord) (*models.FileRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	created := *file
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = time.Now()
	if owner, ok := r.s.users[created.OwnerID]; ok {
		created.OwnerUsername = owner.Username
	}
	r.s.files[created.ID] = &created
	out := created
	return &out, nil
}

func (r *filesRepo) GetByID(_ context.Context, id string) (*models.FileRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.files[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *f
	return &out, nil
}

func (r *filesRepo) ListByOwner(_ context.Context, ownerID string) ([]*models.FileRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*models.FileRecord
	for _, f := range r.s.files {
		if f.OwnerID == ownerID {
			out := *f
			result = append(result, &out)
		}
	}
	return result, nil
}

func (r *filesRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.files[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.files, id)
	// Mirror the FK cascade of the Postgres schema.
	for sid, g := range r.s.shares {
		if g.FileID == id {
			delete(r.s.shares, sid)
		}
	}
	for token, l := range r.s.links {
		if l.FileID == id {
			delete(r.s.links, token)
		}
	}
	return nil
}

// --- shares ---

type sharesRepo struct{ s *store }

func (r *sharesRepo) Create(_ context.Context, grant *models.ShareGrant) (*models.ShareGrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.shares {
		if g.FileID == grant.FileID && g.GranteeID == grant.GranteeID {
			return nil, common.ErrAlreadyExists
		}
	}
	created := *grant
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = time.Now()
	if grantee, ok := r.s.users[created.GranteeID]; ok {
		created.GranteeUsername = grantee.Username
	}
	r.s.shares[created.ID] = &created
	out := created
	return &out, nil
}

func (r *sharesRepo) GetByID(_ context.Context, id string) (*models.ShareGrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.shares[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *g
	return &out, nil
}

func (r *sharesRepo) GetByFileAndGrantee(_ context.Context, fileID, granteeID string) (*models.ShareGrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.shares {
		if g.FileID == fileID && g.GranteeID == granteeID {
			out := *g
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *sharesRepo) ListByFile(_ context.Context, fileID string) ([]*models.ShareGrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*models.ShareGrant
	for _, g := range r.s.shares {
		if g.FileID == fileID {
			out := *g
			result = append(result, &out)
		}
	}
	return result, nil
}

func (r *sharesRepo) ListByGrantee(_ context.Context, granteeID string) ([]*models.ShareGrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*models.ShareGrant
	for _, g := range r.s.shares {
		if g.GranteeID == granteeID {
			out := *g
			result = append(result, &out)
		}
	}
	return result, nil
}

func (r *sharesRepo) UpdatePermission(_ context.Context, id string, permission common.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.shares[id]
	if !ok {
		return common.ErrNotFound
	}
	g.Permission = permission
	return nil
}

func (r *sharesRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.shares[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.shares, id)
	return nil
}

// --- links ---

type linksRepo struct{ s *store }

func (r *linksRepo) Create(_ context.Context, link *models.ShareLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	created := *link
	created.CreatedAt = time.Now()
	r.s.links[created.Token] = &created
	return nil
}

func (r *linksRepo) GetByToken(_ context.Context, token string) (*models.ShareLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.links[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *l
	return &out, nil
}

func (r *linksRepo) DeleteExpired(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for token, l := range r.s.links {
		if l.Expired(now) {
			delete(r.s.links, token)
		}
	}
	return nil
}

// --- keypairs ---

type keypairsRepo struct{ s *store }

func (r *keypairsRepo) Create(_ context.Context, pair *models.KeyPair) (*models.KeyPair, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.keypairs[pair.UserID]; ok {
		out := *existing
		return &out, nil
	}
	created := *pair
	created.CreatedAt = time.Now()
	r.s.keypairs[created.UserID] = &created
	out := created
	return &out, nil
}

func (r *keypairsRepo) GetByUserID(_ context.Context, userID string) (*models.KeyPair, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.keypairs[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *p
	return &out, nil
}

// --- access ---

type accessRepo struct{ s *store }

func (r *accessRepo) Grant(_ context.Context, keyOwnerID, granteeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := [2]string{keyOwnerID, granteeID}
	if _, ok := r.s.access[key]; !ok {
		r.s.access[key] = &models.AccessEntry{KeyOwnerID: keyOwnerID, GranteeID: granteeID, CreatedAt: time.Now()}
	}
	return nil
}

func (r *accessRepo) Revoke(_ context.Context, keyOwnerID, granteeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.access, [2]string{keyOwnerID, granteeID})
	return nil
}

func (r *accessRepo) Exists(_ context.Context, keyOwnerID, granteeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.access[[2]string{keyOwnerID, granteeID}]
	return ok, nil
}
