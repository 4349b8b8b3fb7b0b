package services

import (
	"context"
	"strings"
	"testing"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

func countRows(t *testing.T, store *CatalogStore, model any) int64 {
	t.Helper()
	var n int64
	if err := store.DB().Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestUpsertIdempotent(t *testing.T) {
	store, ingest := newTestIngest(t)
	ctx := context.Background()

	rec := testRecord("r1", "Roads")
	rec.SetValues("subject", []string{"Transportation", "Roads"})
	rec.References = `{"download":"https://example.org/r1.zip"}`

	for i := 0; i < 2; i++ {
		res := ingest.Upsert(ctx, rec, nil)
		if !res.Success {
			t.Fatalf("upsert %d: %s", i, res.Message)
		}
	}

	if n := countRows(t, store, &types.Resource{}); n != 1 {
		t.Fatalf("resources = %d, want 1", n)
	}
	if n := countRows(t, store, &types.ResourceValue{}); n != 3 {
		t.Fatalf("value rows = %d, want 3 (2 subjects + 1 class)", n)
	}
	if n := countRows(t, store, &types.Distribution{}); n != 1 {
		t.Fatalf("distributions = %d, want 1", n)
	}
	if n := countRows(t, store, &types.SearchDocument{}); n != 1 {
		t.Fatalf("search documents = %d, want 1", n)
	}
}

func TestUpsertRejectsInvalid(t *testing.T) {
	_, ingest := newTestIngest(t)
	rec := types.NewRecord("r1") // no title
	res := ingest.Upsert(context.Background(), rec, nil)
	if res.Success {
		t.Fatalf("record missing required fields must be rejected")
	}
	if res.Message == "" {
		t.Fatalf("rejection must carry a message")
	}
}

func TestUpsertReplacesDerivedRows(t *testing.T) {
	store, ingest := newTestIngest(t)
	ctx := context.Background()

	rec := testRecord("r1", "Old Title")
	rec.SetValues("subject", []string{"a", "b", "c"})
	if res := ingest.Upsert(ctx, rec, nil); !res.Success {
		t.Fatalf("first upsert: %s", res.Message)
	}

	rec2 := testRecord("r1", "New Title")
	rec2.SetValues("subject", []string{"z"})
	if res := ingest.Upsert(ctx, rec2, nil); !res.Success {
		t.Fatalf("second upsert: %s", res.Message)
	}

	rows, err := store.Repos().Resource.GetByIDs(ctx, nil, []string{"r1"})
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows = %v, err = %v", rows, err)
	}
	if title, _ := rows[0].FlatValue("title"); title != "New Title" {
		t.Fatalf("title = %q", title)
	}
	values, err := store.Repos().Value.GetByResourceIDs(ctx, nil, []string{"r1"})
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	for _, v := range values {
		if v.FieldName == "subject" && v.Value != "z" {
			t.Fatalf("stale subject row survived: %+v", v)
		}
	}
}

func TestDeleteCascades(t *testing.T) {
	store, ingest := newTestIngest(t)
	ctx := context.Background()

	rec := testRecord("r1", "Roads")
	rec.SetValues("subject", []string{"a"})
	rec.References = `{"download":"u1"}`
	if res := ingest.Upsert(ctx, rec, nil); !res.Success {
		t.Fatalf("upsert: %s", res.Message)
	}
	if err := store.Repos().AssetCache.Put(ctx, nil, &types.AssetCacheEntry{ResourceID: "r1", Payload: "aGk="}); err != nil {
		t.Fatalf("cache put: %v", err)
	}

	if res := ingest.Delete(ctx, "r1"); !res.Success {
		t.Fatalf("delete: %s", res.Message)
	}

	for _, model := range []any{
		&types.Resource{}, &types.ResourceValue{}, &types.Distribution{},
		&types.SearchDocument{}, &types.AssetCacheEntry{},
	} {
		if n := countRows(t, store, model); n != 0 {
			t.Fatalf("%T rows = %d after delete, want 0", model, n)
		}
	}

	// deleting again is not an error
	if res := ingest.Delete(ctx, "r1"); !res.Success {
		t.Fatalf("repeat delete: %s", res.Message)
	}
}

func TestApplyEmbedding(t *testing.T) {
	store, ingest := newTestIngest(t)
	ctx := context.Background()

	if res := ingest.Upsert(ctx, testRecord("r1", "Roads"), nil); !res.Success {
		t.Fatalf("upsert: %s", res.Message)
	}
	if err := ingest.ApplyEmbedding(ctx, "r1", []float64{0.25, 0.5}); err != nil {
		t.Fatalf("apply embedding: %v", err)
	}

	rows, err := store.Repos().Resource.GetByIDs(ctx, nil, []string{"r1"})
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows = %v, err = %v", rows, err)
	}
	if !strings.Contains(string(rows[0].Embedding), "0.25") {
		t.Fatalf("embedding column = %q", string(rows[0].Embedding))
	}
	if title, _ := rows[0].FlatValue("title"); title != "Roads" {
		t.Fatalf("embedding update must not touch other columns, title = %q", title)
	}
}

func TestMutationsOnDegradedStore(t *testing.T) {
	store := newDegradedStore(t)
	snapshots := NewSnapshotService(store, logger.NewNop())
	ingest := NewIngestService(store, snapshots, logger.NewNop())

	if res := ingest.Upsert(context.Background(), testRecord("r1", "Roads"), nil); res.Success {
		t.Fatalf("degraded store must report unavailability")
	}
	if res := ingest.Delete(context.Background(), "r1"); res.Success {
		t.Fatalf("degraded delete must report unavailability")
	}
}
