package services

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/normalization"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// HydrationService assembles full documents from the relational tables.
type HydrationService interface {
	Hydrate(ctx context.Context, ids []string) ([]*types.Record, error)
}

type hydrationService struct {
	store *CatalogStore
	log   *logger.Logger
}

func NewHydrationService(store *CatalogStore, baseLog *logger.Logger) HydrationService {
	return &hydrationService{store: store, log: baseLog.With("service", "hydrate")}
}

// Hydrate returns records in input order. IDs with no resources row are
// dropped rather than reported as errors.
func (s *hydrationService) Hydrate(ctx context.Context, ids []string) ([]*types.Record, error) {
	if len(ids) == 0 {
		return []*types.Record{}, nil
	}
	if !s.store.Available() {
		s.log.Warn("hydrate on unavailable store", "error", s.store.Err())
		return []*types.Record{}, nil
	}
	repos := s.store.Repos()

	var (
		resources []*types.Resource
		values    []*types.ResourceValue
		dists     []*types.Distribution
		cached    []*types.AssetCacheEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resources, err = repos.Resource.GetByIDs(gctx, nil, ids)
		return err
	})
	g.Go(func() error {
		var err error
		values, err = repos.Value.GetByResourceIDs(gctx, nil, ids)
		return err
	})
	g.Go(func() error {
		var err error
		dists, err = repos.Distribution.GetByResourceIDs(gctx, nil, ids)
		return err
	})
	g.Go(func() error {
		var err error
		cached, err = repos.AssetCache.GetByResourceIDs(gctx, nil, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("hydrate lookup failed", "error", err)
		return []*types.Record{}, nil
	}

	byID := map[string]*types.Resource{}
	for _, r := range resources {
		byID[r.ID] = r
	}
	valuesByID := map[string][]*types.ResourceValue{}
	for _, v := range values {
		valuesByID[v.ResourceID] = append(valuesByID[v.ResourceID], v)
	}
	distsByID := map[string][]types.Distribution{}
	for _, d := range dists {
		distsByID[d.ResourceID] = append(distsByID[d.ResourceID], *d)
	}
	cacheByID := map[string]*types.AssetCacheEntry{}
	for _, c := range cached {
		cacheByID[c.ResourceID] = c
	}

	out := make([]*types.Record, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue
		}
		rec, err := s.buildRecord(row, valuesByID[id], distsByID[id], cacheByID[id])
		if err != nil {
			s.log.Warn("skipping unhydratable record", "id", id, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *hydrationService) buildRecord(row *types.Resource, values []*types.ResourceValue, dists []types.Distribution, cache *types.AssetCacheEntry) (*types.Record, error) {
	flat := map[string]string{}
	for _, f := range types.ScalarFields {
		if v, ok := row.FlatValue(f); ok {
			flat[f] = v
		}
	}
	for _, f := range types.RepeatedFields {
		if v, ok := row.FlatValue(f); ok {
			flat[f] = v
		}
	}
	rec, err := normalization.FromRow(flat, dists)
	if err != nil {
		return nil, err
	}

	// index rows carry original element order, so they win over the
	// pipe-joined flat columns
	fromIndex := map[string][]string{}
	for _, v := range values {
		fromIndex[v.FieldName] = append(fromIndex[v.FieldName], v.Value)
	}
	for field, elems := range fromIndex {
		if types.IsRepeatedField(field) {
			rec.SetValues(field, elems)
		}
	}

	if len(row.Embedding) > 0 {
		if err := json.Unmarshal(row.Embedding, &rec.Embedding); err != nil {
			s.log.Warn("malformed embedding column", "id", row.ID, "error", err)
		}
	}
	if len(row.Extra) > 0 {
		if err := json.Unmarshal(row.Extra, &rec.Extra); err != nil {
			s.log.Warn("malformed extra column", "id", row.ID, "error", err)
		}
	}
	if cache != nil && cache.Payload != "" {
		raw, err := base64.StdEncoding.DecodeString(cache.Payload)
		if err != nil {
			s.log.Warn("malformed cached asset payload", "id", row.ID, "error", err)
		} else {
			rec.Thumbnail = raw
		}
	}
	return rec, nil
}
