package product

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopfront/storefront-backend/internal/photos"
	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/migrate"
	"github.com/shopfront/storefront-backend/pkg/storage"
)

const testBase = "https://cdn.example.com/photos"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, migrate.AutoMigrate(conn))
	return conn
}

type memoryBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failPut bool
}

func newMemoryBlob() *memoryBlob {
	return &memoryBlob{objects: map[string][]byte{}}
}

func (m *memoryBlob) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return fmt.Errorf("put %s: unavailable", key)
	}
	m.objects[key] = data
	return nil
}

func (m *memoryBlob) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	if _, ok := m.objects[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *memoryBlob) Ping(context.Context) error { return nil }

func (m *memoryBlob) Close() error { return nil }

func (m *memoryBlob) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memoryBlob) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type testEnv struct {
	db       *gorm.DB
	repo     *Repository
	blob     *memoryBlob
	resolver photos.Resolver
	svc      Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := newTestDB(t)
	repo := NewRepository(conn)
	blob := newMemoryBlob()
	resolver := photos.NewResolver(testBase)
	logg := logger.Nop()
	reconciler := photos.NewReconciler(blob, resolver, 0, logg, nil)
	pricing, err := NewPricing("0.25")
	require.NoError(t, err)
	svc, err := NewService(repo, reconciler, photos.NewNormalizer(resolver, nil), pricing, logg)
	require.NoError(t, err)
	return &testEnv{db: conn, repo: repo, blob: blob, resolver: resolver, svc: svc}
}

func jpeg(name string) photos.Upload {
	return photos.Upload{Name: name, ContentType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF, 0xE0}}
}

// interceptUpdate runs fn once, just before the next UPDATE statement executes.
func interceptUpdate(t *testing.T, env *testEnv, fn func(tx *gorm.DB)) {
	t.Helper()
	var once sync.Once
	err := env.db.Callback().Update().Before("gorm:update").Register("test:intercept", func(tx *gorm.DB) {
		once.Do(func() { fn(tx) })
	})
	require.NoError(t, err)
}
