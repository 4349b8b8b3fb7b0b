package catalog

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

type ResourceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Resource) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Resource, error)
	All(ctx context.Context, tx *gorm.DB) ([]*types.Resource, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []string) error
	UpdateEmbedding(ctx context.Context, tx *gorm.DB, id string, embedding []byte) error
}

type resourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	return &resourceRepo{db: db, log: baseLog.With("repo", "ResourceRepo")}
}

func (r *resourceRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Resource) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	const batchSize = 200
	return transaction.WithContext(ctx).CreateInBatches(rows, batchSize).Error
}

func (r *resourceRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Resource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Resource
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resourceRepo) All(ctx context.Context, tx *gorm.DB) ([]*types.Resource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Resource
	if err := transaction.WithContext(ctx).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resourceRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Resource{}).Error
}

func (r *resourceRepo) UpdateEmbedding(ctx context.Context, tx *gorm.DB, id string, embedding []byte) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Resource{}).
		Where("id = ?", id).
		Update("embedding", embedding).Error
}
