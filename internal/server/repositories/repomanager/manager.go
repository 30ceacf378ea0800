package repomanager

import (
	"context"
	"database/sql"

	"github.com/temporalwh/authcore/internal/dbx"
	"github.com/temporalwh/authcore/internal/server/repositories/refreshtokens"
	"github.com/temporalwh/authcore/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, which lets services
// run a group of repository calls inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
