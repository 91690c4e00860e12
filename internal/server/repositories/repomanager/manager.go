// Package repomanager vends repositories bound to a database handle and runs
// schema migrations. PostgreSQL backs production; the in-memory manager backs
// tests and single-process development runs.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/bankauth/internal/dbx"
	"github.com/dmitrijs2005/bankauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bankauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	// WithTx runs fn in a transaction; fn's handle must be passed to the
	// repository factories.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	// DB is the non-transactional handle.
	DB() dbx.DBTX
}
