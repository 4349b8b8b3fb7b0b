package catalog

import (
	"time"
)

// AssetCacheEntry caches a thumbnail or static-map binary for a record,
// base64-encoded. Its lifecycle is independent of search correctness; a
// missing or corrupt entry only costs the thumbnail.
type AssetCacheEntry struct {
	ResourceID string    `gorm:"type:text;primaryKey" json:"resource_id"`
	Payload    string    `gorm:"type:text;not null;default:''" json:"payload"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (AssetCacheEntry) TableName() string { return "asset_cache" }
