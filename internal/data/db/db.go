package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/geocatalog-backend/internal/platform/envutil"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// Config selects the storage engine. The sqlite path is the default: one
// file, one connection, which matches the catalog's single-writer model.
// Postgres is selected by setting CATALOG_DB_DRIVER=postgres plus a DSN.
type Config struct {
	Driver string
	Path   string // sqlite database file
	DSN    string // postgres connection string
}

func ConfigFromEnv() Config {
	return Config{
		Driver: envutil.String("CATALOG_DB_DRIVER", "sqlite"),
		Path:   envutil.String("CATALOG_DB_PATH", "geocatalog.db"),
		DSN:    envutil.String("CATALOG_DB_DSN", ""),
	}
}

type CatalogDB struct {
	db      *gorm.DB
	dialect string
	log     *logger.Logger
}

func NewCatalogDB(cfg Config, logg *logger.Logger) (*CatalogDB, error) {
	serviceLog := logg.With("service", "CatalogDB")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver selected but CATALOG_DB_DSN is empty")
		}
		dialector = postgres.Open(cfg.DSN)
	case "", "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported catalog db driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog db: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// One writer at a time; busy_timeout covers the rest.
		if err := gdb.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
			serviceLog.Warn("failed to set busy_timeout", "error", err)
		}
	}

	return &CatalogDB{db: gdb, dialect: dialector.Name(), log: serviceLog}, nil
}

func (c *CatalogDB) DB() *gorm.DB     { return c.db }
func (c *CatalogDB) Dialect() string  { return c.dialect }
func (c *CatalogDB) IsSQLite() bool   { return c.dialect == "sqlite" }
func (c *CatalogDB) IsPostgres() bool { return c.dialect == "postgres" }

func (c *CatalogDB) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
