package catalog

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

type SearchDocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.SearchDocument) error
	All(ctx context.Context, tx *gorm.DB) ([]*types.SearchDocument, error)
	DeleteByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) error
}

type searchDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSearchDocumentRepo(db *gorm.DB, baseLog *logger.Logger) SearchDocumentRepo {
	return &searchDocumentRepo{db: db, log: baseLog.With("repo", "SearchDocumentRepo")}
}

func (r *searchDocumentRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.SearchDocument) error {
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

func (r *searchDocumentRepo) All(ctx context.Context, tx *gorm.DB) ([]*types.SearchDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.SearchDocument
	if err := transaction.WithContext(ctx).
		Order("resource_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *searchDocumentRepo) DeleteByResourceIDs(ctx context.Context, tx *gorm.DB, ids []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("resource_id IN ?", ids).
		Delete(&types.SearchDocument{}).Error
}
