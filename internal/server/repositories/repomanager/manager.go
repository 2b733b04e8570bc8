// Package repomanager vends repository implementations bound to a DBTX and
// owns the underlying store lifecycle: migrations, transactions, health
// checks and shutdown.
package repomanager

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/clipshare/internal/dbx"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/users"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/videos"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users(db dbx.DBTX) users.Repository
	Videos(db dbx.DBTX) videos.Repository
	// DB is the non-transactional handle to pass to Users/Videos.
	DB() dbx.DBTX
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Ping(ctx context.Context) error
	Close() error
}

// MemoryDSN selects the in-process store.
const MemoryDSN = "memory"

// New returns the manager matching dsn: the in-memory one for MemoryDSN,
// PostgreSQL otherwise.
func New(dsn string) (RepositoryManager, error) {
	if strings.EqualFold(strings.TrimSpace(dsn), MemoryDSN) {
		return NewMemoryRepositoryManager(), nil
	}
	m, err := OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}
	return m, nil
}
