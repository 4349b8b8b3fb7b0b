package catalog

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

type DistributionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Distribution) error
	GetByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Distribution, error)
	All(ctx context.Context, tx *gorm.DB) ([]*types.Distribution, error)
	DeleteByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) error
}

type distributionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDistributionRepo(db *gorm.DB, baseLog *logger.Logger) DistributionRepo {
	return &distributionRepo{db: db, log: baseLog.With("repo", "DistributionRepo")}
}

func (r *distributionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Distribution) error {
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

func (r *distributionRepo) GetByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Distribution, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Distribution
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("resource_id IN ?", ids).
		Order("resource_id ASC, relation_key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *distributionRepo) All(ctx context.Context, tx *gorm.DB) ([]*types.Distribution, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Distribution
	if err := transaction.WithContext(ctx).
		Order("resource_id ASC, relation_key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *distributionRepo) DeleteByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("resource_id IN ?", ids).
		Delete(&types.Distribution{}).Error
}
