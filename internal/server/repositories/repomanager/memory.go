package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/bankauth/internal/dbx"
	"github.com/dmitrijs2005/bankauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bankauth/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps all state in process. Transactions run one at
// a time; a failed transaction is not rolled back.
type MemoryRepositoryManager struct {
	txMu     sync.Mutex
	users    *users.MemoryStore
	tokens   *refreshtokens.MemoryStore
	settings refreshtokens.Settings
}

func NewMemoryRepositoryManager(settings refreshtokens.Settings) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:    users.NewMemoryStore(),
		tokens:   refreshtokens.NewMemoryStore(),
		settings: settings.WithDefaults(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewMemoryRepository(m.users, m.settings.Now)
}

func (m *MemoryRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewMemoryRepository(m.tokens, m.settings)
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

// DB returns nil: memory repositories ignore the handle.
func (m *MemoryRepositoryManager) DB() dbx.DBTX {
	return nil
}

// TokenStore exposes the refresh token store for seeding and inspection.
func (m *MemoryRepositoryManager) TokenStore() *refreshtokens.MemoryStore {
	return m.tokens
}
