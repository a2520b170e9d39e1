package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/deepcheck/internal/dbx"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/analyses"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Analyses(db dbx.DBTX) analyses.Repository
}
