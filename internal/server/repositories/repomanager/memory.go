package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/clipshare/internal/dbx"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/memory"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/users"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/videos"
)

// MemoryRepositoryManager serves every repository from one memory.Store.
// The DBTX arguments are ignored; WithTx only serializes callers, it does
// not roll back.
type MemoryRepositoryManager struct {
	store *memory.Store
	txMu  sync.Mutex
}

var _ RepositoryManager = (*MemoryRepositoryManager)(nil)

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.store.Users() }

func (m *MemoryRepositoryManager) Videos(dbx.DBTX) videos.Repository { return m.store.Videos() }

func (m *MemoryRepositoryManager) DB() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Ping(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
