package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/yungbote/geocatalog-backend/internal/data/db"
	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

type mapBlobStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapBlobStore() *mapBlobStore {
	return &mapBlobStore{m: map[string][]byte{}}
}

func (b *mapBlobStore) Put(_ context.Context, key string, blob []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m[key] = append([]byte(nil), blob...)
	return nil
}

func (b *mapBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m[key], nil
}

func newTestStore(t *testing.T, blobs BlobStore) *CatalogStore {
	t.Helper()
	cfg := StoreConfig{
		DB: db.Config{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "catalog.db"),
		},
		SnapshotKey: "test:snapshot",
	}
	store := OpenCatalogStore(context.Background(), cfg, blobs, logger.NewNop())
	if !store.Available() {
		t.Fatalf("test store degraded: %v", store.Err())
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// newDegradedStore opens against a path whose parent directory does not
// exist, which makes the engine open fail.
func newDegradedStore(t *testing.T) *CatalogStore {
	t.Helper()
	cfg := StoreConfig{
		DB: db.Config{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "no-such-dir", "nested", "catalog.db"),
		},
	}
	store := OpenCatalogStore(context.Background(), cfg, nil, logger.NewNop())
	if store.Available() {
		t.Fatalf("expected degraded store")
	}
	return store
}

func newTestIngest(t *testing.T) (*CatalogStore, IngestService) {
	t.Helper()
	store := newTestStore(t, nil)
	snapshots := NewSnapshotService(store, logger.NewNop())
	return store, NewIngestService(store, snapshots, logger.NewNop())
}

func testRecord(id, title string) *types.Record {
	rec := types.NewRecord(id)
	rec.SetScalar("title", title)
	rec.SetScalar("access_rights", "Public")
	rec.SetScalar("metadata_version", "Aardvark")
	rec.SetValues("resource_class", []string{"Maps"})
	return rec
}
