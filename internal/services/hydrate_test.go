package services

import (
	"context"
	"encoding/base64"
	"reflect"
	"testing"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/normalization"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

func TestHydrateInputOrderMissingDropped(t *testing.T) {
	store, ingest := newTestIngest(t)
	hydrator := NewHydrationService(store, logger.NewNop())
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3"} {
		if res := ingest.Upsert(ctx, testRecord(id, "Title "+id), nil); !res.Success {
			t.Fatalf("seed %s: %s", id, res.Message)
		}
	}

	records, err := hydrator.Hydrate(ctx, []string{"r3", "missing", "r1"})
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	got := make([]string, 0, len(records))
	for _, rec := range records {
		got = append(got, rec.ID)
	}
	if !reflect.DeepEqual(got, []string{"r3", "r1"}) {
		t.Fatalf("order = %v, want input order with missing dropped", got)
	}
}

func TestHydrateKeepsRepeatedOrder(t *testing.T) {
	store, ingest := newTestIngest(t)
	hydrator := NewHydrationService(store, logger.NewNop())
	ctx := context.Background()

	rec := testRecord("r1", "Roads")
	rec.SetValues("keyword", []string{"zebra", "ant", "middle"})
	if res := ingest.Upsert(ctx, rec, nil); !res.Success {
		t.Fatalf("seed: %s", res.Message)
	}
	_ = store

	records, err := hydrator.Hydrate(ctx, []string{"r1"})
	if err != nil || len(records) != 1 {
		t.Fatalf("hydrate: %v (%d records)", err, len(records))
	}
	if !reflect.DeepEqual(records[0].Values("keyword"), []string{"zebra", "ant", "middle"}) {
		t.Fatalf("index rows should rebuild original order, got %v", records[0].Values("keyword"))
	}
}

func TestHydrateRebuildsReferences(t *testing.T) {
	store, ingest := newTestIngest(t)
	hydrator := NewHydrationService(store, logger.NewNop())
	ctx := context.Background()

	rec := testRecord("r1", "Roads")
	rec.References = `{"download":"u1","related":["u2","u3"]}`
	if res := ingest.Upsert(ctx, rec, nil); !res.Success {
		t.Fatalf("seed: %s", res.Message)
	}
	_ = store

	records, err := hydrator.Hydrate(ctx, []string{"r1"})
	if err != nil || len(records) != 1 {
		t.Fatalf("hydrate: %v", err)
	}
	if records[0].References == "" {
		t.Fatalf("references not rebuilt")
	}
	if back := len(normalization.ExtractDistributions(records[0].References, "r1")); back != 3 {
		t.Fatalf("rebuilt references carry %d targets, want 3", back)
	}
}

func TestHydrateToleratesMalformedCacheEntry(t *testing.T) {
	store, ingest := newTestIngest(t)
	hydrator := NewHydrationService(store, logger.NewNop())
	ctx := context.Background()

	if res := ingest.Upsert(ctx, testRecord("r1", "Roads"), nil); !res.Success {
		t.Fatalf("seed: %s", res.Message)
	}
	if err := store.Repos().AssetCache.Put(ctx, nil, &types.AssetCacheEntry{
		ResourceID: "r1", Payload: "not base64 !!!",
	}); err != nil {
		t.Fatalf("cache put: %v", err)
	}

	records, err := hydrator.Hydrate(ctx, []string{"r1"})
	if err != nil || len(records) != 1 {
		t.Fatalf("malformed cache entry must not fail hydration: %v", err)
	}
	if records[0].Thumbnail != nil {
		t.Fatalf("malformed payload should leave the field absent")
	}
}

func TestHydrateDecodesCachedThumbnail(t *testing.T) {
	store, ingest := newTestIngest(t)
	hydrator := NewHydrationService(store, logger.NewNop())
	ctx := context.Background()

	if res := ingest.Upsert(ctx, testRecord("r1", "Roads"), nil); !res.Success {
		t.Fatalf("seed: %s", res.Message)
	}
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	if err := store.Repos().AssetCache.Put(ctx, nil, &types.AssetCacheEntry{
		ResourceID: "r1", Payload: payload,
	}); err != nil {
		t.Fatalf("cache put: %v", err)
	}

	records, err := hydrator.Hydrate(ctx, []string{"r1"})
	if err != nil || len(records) != 1 {
		t.Fatalf("hydrate: %v", err)
	}
	if string(records[0].Thumbnail) != "png-bytes" {
		t.Fatalf("thumbnail = %q", records[0].Thumbnail)
	}
}

func TestHydrateDegradedStoreReturnsEmpty(t *testing.T) {
	hydrator := NewHydrationService(newDegradedStore(t), logger.NewNop())
	records, err := hydrator.Hydrate(context.Background(), []string{"r1"})
	if err != nil {
		t.Fatalf("degraded hydrate must not error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("degraded hydrate must be empty, got %d", len(records))
	}
}
