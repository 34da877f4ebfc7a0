// Package repomanager wires repository constructors together and runs
// database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/mayankramina/secure-file-share/internal/dbx"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/access"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/files"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/keypairs"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/links"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/shares"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX, so a service can
// use the same repository code against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	Shares(db dbx.DBTX) shares.Repository
	Links(db dbx.DBTX) links.Repository
	KeyPairs(db dbx.DBTX) keypairs.Repository
	Access(db dbx.DBTX) access.Repository
}
