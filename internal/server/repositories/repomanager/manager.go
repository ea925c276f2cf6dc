package repomanager

import (
	"context"
	"database/sql"

	"cryptora/internal/dbx"
	"cryptora/internal/server/repositories/accounts"
	"cryptora/internal/server/repositories/folders"
	"cryptora/internal/server/repositories/notes"
	"cryptora/internal/server/repositories/sharelinks"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Folders(db dbx.DBTX) folders.Repository
	Notes(db dbx.DBTX) notes.Repository
	ShareLinks(db dbx.DBTX) sharelinks.Repository
}
