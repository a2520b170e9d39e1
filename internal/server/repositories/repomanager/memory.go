package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/deepcheck/internal/dbx"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/analyses"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/users"
)

// InMemoryRepositoryManager serves process-local repositories. The db
// argument of the factories is ignored. Used for local runs without
// Postgres and in tests.
type InMemoryRepositoryManager struct {
	users    *users.MemoryRepository
	analyses *analyses.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:    users.NewMemoryRepository(),
		analyses: analyses.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Analyses(dbx.DBTX) analyses.Repository {
	return m.analyses
}
