package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/normalization"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// MutationResult is what mutation callers render: a success flag plus
// message instead of an exception.
type MutationResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Imported int    `json:"imported,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
}

type IngestService interface {
	Upsert(ctx context.Context, rec *types.Record, dists []*types.Distribution) MutationResult
	Delete(ctx context.Context, id string) MutationResult
	ImportCSV(ctx context.Context, r io.Reader) MutationResult
	ImportJSON(ctx context.Context, r io.Reader) MutationResult
	ApplyEmbedding(ctx context.Context, id string, embedding []float64) error
}

type ingestService struct {
	store     *CatalogStore
	snapshots SnapshotService
	log       *logger.Logger
}

func NewIngestService(store *CatalogStore, snapshots SnapshotService, baseLog *logger.Logger) IngestService {
	return &ingestService{
		store:     store,
		snapshots: snapshots,
		log:       baseLog.With("service", "IngestService"),
	}
}

// Upsert has replace semantics: all derived rows for the id are regenerated.
// The delete/insert halves run inside one transaction, and a per-id lock
// keeps two upserts on the same record from interleaving.
func (s *ingestService) Upsert(ctx context.Context, rec *types.Record, dists []*types.Distribution) MutationResult {
	if !s.store.Available() {
		return MutationResult{Success: false, Message: s.store.Err().Error()}
	}
	if rec == nil {
		return MutationResult{Success: false, Message: "nil record"}
	}
	if err := rec.Validate(); err != nil {
		return MutationResult{Success: false, Message: err.Error()}
	}
	if err := s.upsertOne(ctx, rec, dists); err != nil {
		return MutationResult{Success: false, Message: fmt.Sprintf("upsert %s failed: %v", rec.ID, err)}
	}
	s.flush(ctx)
	return MutationResult{Success: true, Message: fmt.Sprintf("upserted %s", rec.ID), Imported: 1}
}

func (s *ingestService) upsertOne(ctx context.Context, rec *types.Record, dists []*types.Distribution) error {
	if dists == nil && rec.References != "" {
		for _, d := range normalization.ExtractDistributions(rec.References, rec.ID) {
			d := d
			dists = append(dists, &d)
		}
	}

	unlock := s.store.Lock(rec.ID)
	defer unlock()

	return s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.store.Repos()
		ids := []string{rec.ID}
		if err := repos.Resource.DeleteByIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := repos.Value.DeleteByResourceIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := repos.Distribution.DeleteByResourceIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := repos.SearchDocument.DeleteByResourceIDs(ctx, tx, ids); err != nil {
			return err
		}
		return s.insertRecord(ctx, tx, rec, dists)
	})
}

func (s *ingestService) insertRecord(ctx context.Context, tx *gorm.DB, rec *types.Record, dists []*types.Distribution) error {
	repos := s.store.Repos()
	if err := repos.Resource.Create(ctx, tx, []*types.Resource{buildResourceRow(rec)}); err != nil {
		return err
	}
	if err := repos.Value.Create(ctx, tx, buildValueRows(rec)); err != nil {
		return err
	}
	for _, d := range dists {
		d.ResourceID = rec.ID
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
	}
	if err := repos.Distribution.Create(ctx, tx, dists); err != nil {
		return err
	}
	doc := &types.SearchDocument{ResourceID: rec.ID, Text: normalization.BuildSearchText(rec)}
	return repos.SearchDocument.Create(ctx, tx, []*types.SearchDocument{doc})
}

// Delete removes the id from every derived table. Deleting a missing id is
// not an error.
func (s *ingestService) Delete(ctx context.Context, id string) MutationResult {
	if !s.store.Available() {
		return MutationResult{Success: false, Message: s.store.Err().Error()}
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return MutationResult{Success: false, Message: "empty id"}
	}

	unlock := s.store.Lock(id)
	defer unlock()

	err := s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.store.Repos()
		ids := []string{id}
		if err := repos.Resource.DeleteByIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := repos.Value.DeleteByResourceIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := repos.Distribution.DeleteByResourceIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := repos.SearchDocument.DeleteByResourceIDs(ctx, tx, ids); err != nil {
			return err
		}
		return repos.AssetCache.DeleteByResourceIDs(ctx, tx, ids)
	})
	if err != nil {
		return MutationResult{Success: false, Message: fmt.Sprintf("delete %s failed: %v", id, err)}
	}
	s.flush(ctx)
	return MutationResult{Success: true, Message: fmt.Sprintf("deleted %s", id)}
}

// ApplyEmbedding updates only the embedding column, serialized against any
// concurrent upsert on the same id.
func (s *ingestService) ApplyEmbedding(ctx context.Context, id string, embedding []float64) error {
	if !s.store.Available() {
		return s.store.Err()
	}
	if id == "" || len(embedding) == 0 {
		return nil
	}
	raw, err := json.Marshal(embedding)
	if err != nil {
		return err
	}

	unlock := s.store.Lock(id)
	defer unlock()

	if err := s.store.Repos().Resource.UpdateEmbedding(ctx, nil, id, raw); err != nil {
		return err
	}
	s.flush(ctx)
	return nil
}

func (s *ingestService) flush(ctx context.Context) {
	if err := s.snapshots.Flush(ctx); err != nil {
		s.log.Warn("snapshot flush failed", "error", err)
	}
}

func buildResourceRow(rec *types.Record) *types.Resource {
	row := &types.Resource{}
	for name, value := range normalization.ToFlatRow(rec) {
		row.SetFlat(name, value)
	}
	if env, ok := normalization.ParseEnvelope(row.Bbox); ok {
		row.BboxWest = ptrFloat(env.West)
		row.BboxEast = ptrFloat(env.East)
		row.BboxSouth = ptrFloat(env.South)
		row.BboxNorth = ptrFloat(env.North)
	}
	if len(rec.Embedding) > 0 {
		if raw, err := json.Marshal(rec.Embedding); err == nil {
			row.Embedding = datatypes.JSON(raw)
		}
	}
	if len(rec.Extra) > 0 {
		if raw, err := json.Marshal(rec.Extra); err == nil {
			row.Extra = datatypes.JSON(raw)
		}
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	return row
}

func buildValueRows(rec *types.Record) []*types.ResourceValue {
	out := []*types.ResourceValue{}
	for _, field := range types.RepeatedFields {
		pos := 0
		for _, v := range rec.Repeated[field] {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			out = append(out, &types.ResourceValue{
				ID:         uuid.New(),
				ResourceID: rec.ID,
				FieldName:  field,
				Value:      v,
				Pos:        pos,
			})
			pos++
		}
	}
	return out
}

func ptrFloat(f float64) *float64 { return &f }
