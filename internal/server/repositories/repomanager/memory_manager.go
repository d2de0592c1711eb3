package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/notsy/internal/dbx"
	"github.com/dmitrijs2005/notsy/internal/server/repositories/notes"
)

// MemoryRepositoryManager hands out one shared in-memory repository and
// ignores the DBTX argument. Used for local runs without a database.
type MemoryRepositoryManager struct {
	notes *notes.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{notes: notes.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Notes(dbx.DBTX) notes.Repository {
	return m.notes
}
