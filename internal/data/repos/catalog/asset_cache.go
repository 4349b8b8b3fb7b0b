package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

type AssetCacheRepo interface {
	Put(ctx context.Context, tx *gorm.DB, entry *types.AssetCacheEntry) error
	GetByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.AssetCacheEntry, error)
	All(ctx context.Context, tx *gorm.DB) ([]*types.AssetCacheEntry, error)
	DeleteByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) error
}

type assetCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetCacheRepo(db *gorm.DB, baseLog *logger.Logger) AssetCacheRepo {
	return &assetCacheRepo{db: db, log: baseLog.With("repo", "AssetCacheRepo")}
}

func (r *assetCacheRepo) Put(ctx context.Context, tx *gorm.DB, entry *types.AssetCacheEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if entry == nil || entry.ResourceID == "" {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resource_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "created_at"}),
		}).
		Create(entry).Error
}

func (r *assetCacheRepo) GetByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.AssetCacheEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AssetCacheEntry
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("resource_id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *assetCacheRepo) All(ctx context.Context, tx *gorm.DB) ([]*types.AssetCacheEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AssetCacheEntry
	if err := transaction.WithContext(ctx).
		Order("resource_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *assetCacheRepo) DeleteByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("resource_id IN ?", ids).
		Delete(&types.AssetCacheEntry{}).Error
}
