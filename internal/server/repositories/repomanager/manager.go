package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/notsy/internal/dbx"
	"github.com/dmitrijs2005/notsy/internal/server/repositories/notes"
)

// RepositoryManager vends note repositories and owns schema setup for the
// backing store.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Notes(db dbx.DBTX) notes.Repository
}
