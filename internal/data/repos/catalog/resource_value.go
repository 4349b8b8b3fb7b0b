package catalog

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

type ResourceValueRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ResourceValue) error
	GetByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.ResourceValue, error)
	All(ctx context.Context, tx *gorm.DB) ([]*types.ResourceValue, error)
	DeleteByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) error
}

type resourceValueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceValueRepo(db *gorm.DB, baseLog *logger.Logger) ResourceValueRepo {
	return &resourceValueRepo{db: db, log: baseLog.With("repo", "ResourceValueRepo")}
}

func (r *resourceValueRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ResourceValue) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	const batchSize = 500
	return transaction.WithContext(ctx).CreateInBatches(rows, batchSize).Error
}

func (r *resourceValueRepo) GetByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.ResourceValue, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ResourceValue
	if len(ids) == 0 {
		return results, nil
	}
	// pos keeps repeated-array order stable across hydrations
	if err := transaction.WithContext(ctx).
		Where("resource_id IN ?", ids).
		Order("resource_id ASC, field_name ASC, pos ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resourceValueRepo) All(ctx context.Context, tx *gorm.DB) ([]*types.ResourceValue, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ResourceValue
	if err := transaction.WithContext(ctx).
		Order("resource_id ASC, field_name ASC, pos ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resourceValueRepo) DeleteByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("resource_id IN ?", ids).
		Delete(&types.ResourceValue{}).Error
}
