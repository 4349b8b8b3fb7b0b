package catalog

import (
	"gorm.io/gorm"

	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// Repos bundles the catalog repositories over one shared handle.
type Repos struct {
	Resource       ResourceRepo
	Value          ResourceValueRepo
	Distribution   DistributionRepo
	SearchDocument SearchDocumentRepo
	AssetCache     AssetCacheRepo
	Search         SearchRepo
}

func New(db *gorm.DB, dialect string, baseLog *logger.Logger) *Repos {
	return &Repos{
		Resource:       NewResourceRepo(db, baseLog),
		Value:          NewResourceValueRepo(db, baseLog),
		Distribution:   NewDistributionRepo(db, baseLog),
		SearchDocument: NewSearchDocumentRepo(db, baseLog),
		AssetCache:     NewAssetCacheRepo(db, baseLog),
		Search:         NewSearchRepo(db, dialect, baseLog),
	}
}
