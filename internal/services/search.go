package services

import (
	"context"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// SearchService is the degradation boundary around the query compiler:
// callers always get a well-formed result, never an error.
type SearchService interface {
	Search(ctx context.Context, req types.SearchRequest) types.SearchResult
	Neighbors(ctx context.Context, id string, req types.SearchRequest) types.Neighbors
}

type searchService struct {
	store *CatalogStore
	log   *logger.Logger
}

func NewSearchService(store *CatalogStore, baseLog *logger.Logger) SearchService {
	return &searchService{store: store, log: baseLog.With("service", "SearchService")}
}

func emptyResult() types.SearchResult {
	return types.SearchResult{IDs: []string{}, Facets: map[string][]types.FacetValue{}}
}

func (s *searchService) Search(ctx context.Context, req types.SearchRequest) types.SearchResult {
	if !s.store.Available() {
		s.log.Warn("search on unavailable store", "error", s.store.Err())
		return emptyResult()
	}
	res, err := s.store.Repos().Search.Search(ctx, nil, req)
	if err != nil {
		s.log.Warn("search failed", "error", err)
		return emptyResult()
	}
	return res
}

func (s *searchService) Neighbors(ctx context.Context, id string, req types.SearchRequest) types.Neighbors {
	if !s.store.Available() {
		s.log.Warn("neighbors on unavailable store", "error", s.store.Err())
		return types.Neighbors{}
	}
	nb, err := s.store.Repos().Search.Neighbors(ctx, nil, id, req)
	if err != nil {
		s.log.Warn("neighbors lookup failed", "id", id, "error", err)
		return types.Neighbors{}
	}
	return nb
}
