package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	apperrors "github.com/yungbote/geocatalog-backend/internal/pkg/errors"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// SnapshotService serializes the whole catalog to one durable blob and
// restores it transactionally. Restore is the only genuinely atomic bulk
// mutation in the system.
type SnapshotService interface {
	Serialize(ctx context.Context) ([]byte, error)
	Flush(ctx context.Context) error
	Restore(ctx context.Context, blob []byte) MutationResult
	Bootstrap(ctx context.Context) error
}

type snapshotService struct {
	store *CatalogStore
	log   *logger.Logger
	http  *http.Client
}

func NewSnapshotService(store *CatalogStore, baseLog *logger.Logger) SnapshotService {
	return &snapshotService{
		store: store,
		log:   baseLog.With("service", "SnapshotService"),
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

const snapshotVersion = 1

type snapshotPayload struct {
	Version         int                      `json:"version"`
	Resources       []*types.Resource        `json:"resources"`
	Values          []*types.ResourceValue   `json:"values"`
	Distributions   []*types.Distribution    `json:"distributions"`
	SearchDocuments []*types.SearchDocument  `json:"search_documents"`
	AssetCache      []*types.AssetCacheEntry `json:"asset_cache"`
}

func (s *snapshotService) Serialize(ctx context.Context) ([]byte, error) {
	if !s.store.Available() {
		return nil, s.store.Err()
	}
	repos := s.store.Repos()
	payload := snapshotPayload{Version: snapshotVersion}
	var err error
	if payload.Resources, err = repos.Resource.All(ctx, nil); err != nil {
		return nil, fmt.Errorf("snapshot resources: %w", err)
	}
	if payload.Values, err = repos.Value.All(ctx, nil); err != nil {
		return nil, fmt.Errorf("snapshot values: %w", err)
	}
	if payload.Distributions, err = repos.Distribution.All(ctx, nil); err != nil {
		return nil, fmt.Errorf("snapshot distributions: %w", err)
	}
	if payload.SearchDocuments, err = repos.SearchDocument.All(ctx, nil); err != nil {
		return nil, fmt.Errorf("snapshot search documents: %w", err)
	}
	if payload.AssetCache, err = repos.AssetCache.All(ctx, nil); err != nil {
		return nil, fmt.Errorf("snapshot asset cache: %w", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("snapshot encode: %w", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("snapshot compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("snapshot compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Flush writes the current state under the fixed snapshot key. A zero-byte
// serialization is discarded rather than overwriting a good snapshot.
func (s *snapshotService) Flush(ctx context.Context) error {
	if !s.store.Available() {
		return s.store.Err()
	}
	blob, err := s.Serialize(ctx)
	if err != nil {
		return err
	}
	if len(blob) == 0 {
		s.log.Warn("discarding empty snapshot flush")
		return apperrors.ErrEmptySnapshot
	}
	if s.store.Blobs() == nil {
		s.log.Debug("no blob store configured, skipping snapshot flush")
		return nil
	}
	if err := s.store.Blobs().Put(ctx, s.store.Config().SnapshotKey, blob); err != nil {
		return fmt.Errorf("snapshot put: %w", err)
	}
	s.log.Debug("snapshot flushed", "bytes", len(blob))
	return nil
}

// Restore clears and repopulates every derived table from the blob inside
// one transaction, rolling back entirely on failure.
func (s *snapshotService) Restore(ctx context.Context, blob []byte) MutationResult {
	if !s.store.Available() {
		return MutationResult{Success: false, Message: s.store.Err().Error()}
	}
	payload, err := decodeSnapshot(blob)
	if err != nil {
		return MutationResult{Success: false, Message: fmt.Sprintf("snapshot decode failed: %v", err)}
	}

	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&types.Resource{}, &types.ResourceValue{}, &types.Distribution{},
			&types.SearchDocument{}, &types.AssetCacheEntry{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		const batchSize = 200
		if len(payload.Resources) > 0 {
			if err := tx.CreateInBatches(payload.Resources, batchSize).Error; err != nil {
				return err
			}
		}
		if len(payload.Values) > 0 {
			if err := tx.CreateInBatches(payload.Values, batchSize).Error; err != nil {
				return err
			}
		}
		if len(payload.Distributions) > 0 {
			if err := tx.CreateInBatches(payload.Distributions, batchSize).Error; err != nil {
				return err
			}
		}
		if len(payload.SearchDocuments) > 0 {
			if err := tx.CreateInBatches(payload.SearchDocuments, batchSize).Error; err != nil {
				return err
			}
		}
		if len(payload.AssetCache) > 0 {
			if err := tx.CreateInBatches(payload.AssetCache, batchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("snapshot restore rolled back", "error", err)
		return MutationResult{Success: false, Message: fmt.Sprintf("snapshot restore rolled back: %v", err)}
	}

	if err := s.Flush(ctx); err != nil {
		s.log.Warn("post-restore snapshot flush failed", "error", err)
	}
	return MutationResult{
		Success:  true,
		Message:  fmt.Sprintf("restored %d records", len(payload.Resources)),
		Imported: len(payload.Resources),
	}
}

// Bootstrap populates an empty store from the blob store, falling back to
// the static snapshot URL on first-ever startup.
func (s *snapshotService) Bootstrap(ctx context.Context) error {
	if !s.store.Available() {
		return s.store.Err()
	}
	var count int64
	if err := s.store.DB().WithContext(ctx).Model(&types.Resource{}).Count(&count).Error; err != nil {
		return fmt.Errorf("bootstrap count: %w", err)
	}
	if count > 0 {
		return nil
	}

	var blob []byte
	if s.store.Blobs() != nil {
		var err error
		blob, err = s.store.Blobs().Get(ctx, s.store.Config().SnapshotKey)
		if err != nil {
			s.log.Warn("snapshot fetch from blob store failed", "error", err)
		}
	}
	if len(blob) == 0 && s.store.Config().SnapshotURL != "" {
		fetched, err := s.fetchRemote(ctx, s.store.Config().SnapshotURL)
		if err != nil {
			s.log.Warn("remote snapshot fetch failed", "url", s.store.Config().SnapshotURL, "error", err)
		} else {
			blob = fetched
		}
	}
	if len(blob) == 0 {
		return nil
	}
	if res := s.Restore(ctx, blob); !res.Success {
		return fmt.Errorf("bootstrap restore: %s", res.Message)
	}
	s.log.Info("catalog bootstrapped from snapshot")
	return nil
}

func (s *snapshotService) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func decodeSnapshot(blob []byte) (*snapshotPayload, error) {
	if len(blob) == 0 {
		return nil, apperrors.ErrEmptySnapshot
	}
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	var payload snapshotPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
