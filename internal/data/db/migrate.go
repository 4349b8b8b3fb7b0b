package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
)

// AutoMigrateAll bootstraps the five catalog tables. Migration is additive
// only: missing tables are created, missing columns added, nothing is ever
// dropped or renamed. Safe to run on every startup.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Resource{},
		&types.ResourceValue{},
		&types.Distribution{},
		&types.SearchDocument{},
		&types.AssetCacheEntry{},
	)
}

// secondaryIndexes are created outside AutoMigrate so a failure on an engine
// variant without full index support degrades to slow queries instead of a
// failed bootstrap.
var secondaryIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_resources_mv_resource_field ON resources_mv (resource_id, field_name)`,
	`CREATE INDEX IF NOT EXISTS idx_resources_mv_field_value ON resources_mv (field_name, value)`,
	`CREATE INDEX IF NOT EXISTS idx_distributions_resource ON distributions (resource_id)`,
	`CREATE INDEX IF NOT EXISTS idx_resources_title ON resources (title)`,
	`CREATE INDEX IF NOT EXISTS idx_resources_bbox ON resources (bbox_west, bbox_east, bbox_south, bbox_north)`,
}

func (c *CatalogDB) EnsureIndexes() {
	for _, stmt := range secondaryIndexes {
		if err := c.db.Exec(stmt).Error; err != nil {
			c.log.Warn("secondary index creation failed", "stmt", stmt, "error", err)
		}
	}
}
