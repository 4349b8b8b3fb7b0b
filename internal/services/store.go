package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/geocatalog-backend/internal/data/db"
	catalogrepos "github.com/yungbote/geocatalog-backend/internal/data/repos/catalog"
	apperrors "github.com/yungbote/geocatalog-backend/internal/pkg/errors"
	"github.com/yungbote/geocatalog-backend/internal/pkg/keymutex"
	"github.com/yungbote/geocatalog-backend/internal/platform/envutil"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// BlobStore is where the snapshot blob lives. The redis client satisfies it;
// tests plug in a map.
type BlobStore interface {
	Put(ctx context.Context, key string, blob []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type StoreConfig struct {
	DB          db.Config
	SnapshotKey string
	SnapshotURL string
}

func StoreConfigFromEnv() StoreConfig {
	return StoreConfig{
		DB:          db.ConfigFromEnv(),
		SnapshotKey: envutil.String("CATALOG_SNAPSHOT_KEY", "geocatalog:snapshot"),
		SnapshotURL: envutil.String("CATALOG_SNAPSHOT_URL", ""),
	}
}

// CatalogStore owns the engine handle, the per-id write locks and the repo
// set. A failed open leaves it degraded instead of failing construction:
// reads return empty results, mutations report unavailability, and callers
// never special-case startup failure.
type CatalogStore struct {
	cfg     StoreConfig
	log     *logger.Logger
	cdb     *db.CatalogDB
	repos   *catalogrepos.Repos
	locks   *keymutex.KeyMutex
	blobs   BlobStore
	initErr error
}

func OpenCatalogStore(ctx context.Context, cfg StoreConfig, blobs BlobStore, logg *logger.Logger) *CatalogStore {
	s := &CatalogStore{
		cfg:   cfg,
		log:   logg.With("service", "CatalogStore"),
		locks: keymutex.New(),
		blobs: blobs,
	}
	cdb, err := db.NewCatalogDB(cfg.DB, logg)
	if err != nil {
		s.degrade(err)
		return s
	}
	if err := db.AutoMigrateAll(cdb.DB()); err != nil {
		_ = cdb.Close()
		s.degrade(err)
		return s
	}
	cdb.EnsureIndexes()
	s.cdb = cdb
	s.repos = catalogrepos.New(cdb.DB(), cdb.Dialect(), logg)
	return s
}

func (s *CatalogStore) degrade(err error) {
	s.initErr = fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	s.log.Warn("catalog store degraded: engine failed to initialize", "error", err)
}

func (s *CatalogStore) Available() bool { return s.initErr == nil }
func (s *CatalogStore) Err() error      { return s.initErr }

func (s *CatalogStore) DB() *gorm.DB {
	if s.cdb == nil {
		return nil
	}
	return s.cdb.DB()
}

func (s *CatalogStore) Dialect() string {
	if s.cdb == nil {
		return ""
	}
	return s.cdb.Dialect()
}

func (s *CatalogStore) Repos() *catalogrepos.Repos { return s.repos }
func (s *CatalogStore) Config() StoreConfig        { return s.cfg }
func (s *CatalogStore) Blobs() BlobStore           { return s.blobs }

// Lock serializes mutations on one record id.
func (s *CatalogStore) Lock(id string) func() { return s.locks.Lock(id) }

func (s *CatalogStore) Close() error {
	if s.cdb == nil {
		return nil
	}
	return s.cdb.Close()
}

var (
	sharedMu     sync.Mutex
	sharedStores = map[string]*CatalogStore{}
	openGroup    singleflight.Group
)

// SharedCatalogStore memoizes the open per engine target: concurrent early
// callers share one in-flight setup instead of racing separate instances.
func SharedCatalogStore(ctx context.Context, cfg StoreConfig, blobs BlobStore, logg *logger.Logger) *CatalogStore {
	key := cfg.DB.Driver + "|" + cfg.DB.Path + "|" + cfg.DB.DSN
	sharedMu.Lock()
	if st, ok := sharedStores[key]; ok {
		sharedMu.Unlock()
		return st
	}
	sharedMu.Unlock()

	v, _, _ := openGroup.Do(key, func() (any, error) {
		st := OpenCatalogStore(ctx, cfg, blobs, logg)
		sharedMu.Lock()
		sharedStores[key] = st
		sharedMu.Unlock()
		return st, nil
	})
	return v.(*CatalogStore)
}
