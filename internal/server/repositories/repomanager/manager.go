package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sparkdrive/internal/dbx"
	"github.com/dmitrijs2005/sparkdrive/internal/server/repositories/files"
	"github.com/dmitrijs2005/sparkdrive/internal/server/repositories/folders"
	"github.com/dmitrijs2005/sparkdrive/internal/server/repositories/shares"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Folders(db dbx.DBTX) folders.Repository
	Files(db dbx.DBTX) files.Repository
	Shares(db dbx.DBTX) shares.Repository
}
