package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/dbx"
	"github.com/dmitrijs2005/clipshare/internal/server/config"
	"github.com/dmitrijs2005/clipshare/internal/server/models"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/users"
)

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:             "k",
		TokenValidityDuration: 24 * time.Hour,
		UploadTimeout:         time.Second,
	}
}

// --- media host ---

type fakeMedia struct {
	mu       sync.Mutex
	objects  map[string][]byte
	putErr   error
	putDelay time.Duration
	presign  error
	deleted  []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: map[string][]byte{}}
}

func (f *fakeMedia) Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	if f.putDelay > 0 {
		select {
		case <-time.After(f.putDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.putErr != nil {
		return "", f.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.objects[key] = b
	f.mu.Unlock()
	return "https://media.example/" + key, nil
}

func (f *fakeMedia) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeMedia) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.presign != nil {
		return "", f.presign
	}
	return "https://signed.example/" + key + "?ttl=" + ttl.String(), nil
}

func (f *fakeMedia) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func body(s string) io.ReadSeeker { return bytes.NewReader([]byte(s)) }

// --- publisher ---

type capturedEvent struct {
	key   string
	event any
}

type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
	err    error
}

func (p *capturePublisher) Publish(ctx context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, capturedEvent{key, event})
	return nil
}

// --- cache ---

type mapCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	versions    map[string]int
	invalidated []string
	hits        int
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, versions: map[string]int{}}
}

func (c *mapCache) Version(ctx context.Context, scope string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strconv.Itoa(c.versions[scope]), true
}

func (c *mapCache) Get(ctx context.Context, scope, field string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[scope+"|"+field]
	if ok {
		c.hits++
	}
	return b, ok
}

func (c *mapCache) Set(ctx context.Context, scope, field string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[scope+"|"+field] = data
}

func (c *mapCache) Invalidate(ctx context.Context, scopes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, scopes...)
	for _, s := range scopes {
		c.versions[s]++
	}
	for k := range c.data {
		for _, s := range scopes {
			if len(k) > len(s) && k[:len(s)+1] == s+"|" {
				delete(c.data, k)
			}
		}
	}
}

// --- failing repositories ---

var errDB = errors.New("db error: connection reset")

type brokenUsers struct {
	users.Repository
	createErr error
	lookupErr error
}

func (b *brokenUsers) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	if b.lookupErr != nil {
		return nil, b.lookupErr
	}
	return b.Repository.FindByUsernameOrEmail(ctx, username, email)
}

func (b *brokenUsers) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	if b.lookupErr != nil {
		return nil, b.lookupErr
	}
	return b.Repository.GetUserByLogin(ctx, login)
}

func (b *brokenUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	return b.Repository.Create(ctx, u)
}

type brokenManager struct {
	*repomanager.MemoryRepositoryManager
	users *brokenUsers
	txErr error
}

func newBrokenManager() *brokenManager {
	m := repomanager.NewMemoryRepositoryManager()
	return &brokenManager{MemoryRepositoryManager: m, users: &brokenUsers{Repository: m.Users(nil)}}
}

func (m *brokenManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *brokenManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return m.MemoryRepositoryManager.WithTx(ctx, fn)
}
