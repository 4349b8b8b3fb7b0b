package testutil

import (
	"path/filepath"
	"testing"

	"github.com/yungbote/geocatalog-backend/internal/data/db"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// DB opens a fresh migrated sqlite database in the test's temp dir. Each
// test gets its own file so services that run their own transactions do not
// interfere with each other.
func DB(tb testing.TB) *db.CatalogDB {
	tb.Helper()
	cfg := db.Config{
		Driver: "sqlite",
		Path:   filepath.Join(tb.TempDir(), "catalog.db"),
	}
	cdb, err := db.NewCatalogDB(cfg, Logger(tb))
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrateAll(cdb.DB()); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	cdb.EnsureIndexes()
	tb.Cleanup(func() { _ = cdb.Close() })
	return cdb
}

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.NewNop()
}
