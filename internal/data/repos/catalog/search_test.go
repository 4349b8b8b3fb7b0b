package catalog

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/geocatalog-backend/internal/data/db"
	"github.com/yungbote/geocatalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/geocatalog-backend/internal/domain"
)

type seed struct {
	id       string
	title    string
	year     string
	format   string
	subjects []string
	bbox     [4]*float64 // west, east, south, north
	text     string
}

func f(v float64) *float64 { return &v }

func box(west, east, south, north float64) [4]*float64 {
	return [4]*float64{f(west), f(east), f(south), f(north)}
}

func seedCatalog(t *testing.T, cdb *db.CatalogDB, rows []seed) *Repos {
	t.Helper()
	ctx := context.Background()
	repos := New(cdb.DB(), cdb.Dialect(), testutil.Logger(t))
	for _, s := range rows {
		res := &types.Resource{}
		res.SetFlat("id", s.id)
		res.SetFlat("title", s.title)
		res.SetFlat("year", s.year)
		res.SetFlat("format", s.format)
		res.BboxWest, res.BboxEast, res.BboxSouth, res.BboxNorth = s.bbox[0], s.bbox[1], s.bbox[2], s.bbox[3]
		if err := repos.Resource.Create(ctx, nil, []*types.Resource{res}); err != nil {
			t.Fatalf("seed resource %s: %v", s.id, err)
		}
		values := []*types.ResourceValue{}
		for i, subj := range s.subjects {
			values = append(values, &types.ResourceValue{
				ID: uuid.New(), ResourceID: s.id, FieldName: "subject", Value: subj, Pos: i,
			})
		}
		if err := repos.Value.Create(ctx, nil, values); err != nil {
			t.Fatalf("seed values %s: %v", s.id, err)
		}
		text := s.text
		if text == "" {
			text = s.id + " " + s.title
		}
		doc := &types.SearchDocument{ResourceID: s.id, Text: text}
		if err := repos.SearchDocument.Create(ctx, nil, []*types.SearchDocument{doc}); err != nil {
			t.Fatalf("seed doc %s: %v", s.id, err)
		}
	}
	return repos
}

func threeSubjectRows(t *testing.T) *Repos {
	return seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "Alpha", subjects: []string{"a", "b"}},
		{id: "r2", title: "Beta", subjects: []string{"b", "c"}},
		{id: "r3", title: "Gamma", subjects: []string{"c"}},
	})
}

func search(t *testing.T, repos *Repos, req types.SearchRequest) types.SearchResult {
	t.Helper()
	res, err := repos.Search.Search(context.Background(), nil, req)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	return res
}

func TestSearchRepeatedAny(t *testing.T) {
	repos := threeSubjectRows(t)
	res := search(t, repos, types.SearchRequest{
		Filters: map[string]types.FieldFilter{"subject": {Any: []string{"a", "b"}}},
	})
	if !reflect.DeepEqual(res.IDs, []string{"r1", "r2"}) {
		t.Fatalf("any = %v, want [r1 r2]", res.IDs)
	}
	if res.Total != 2 {
		t.Fatalf("total = %d", res.Total)
	}
}

func TestSearchRepeatedNone(t *testing.T) {
	repos := threeSubjectRows(t)
	res := search(t, repos, types.SearchRequest{
		Filters: map[string]types.FieldFilter{"subject": {None: []string{"c"}}},
	})
	if !reflect.DeepEqual(res.IDs, []string{"r1"}) {
		t.Fatalf("none = %v, want [r1]", res.IDs)
	}
}

func TestSearchRepeatedNonePassesAbsent(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "Alpha", subjects: []string{"x"}},
		{id: "r2", title: "Beta"}, // no subjects at all
	})
	res := search(t, repos, types.SearchRequest{
		Filters: map[string]types.FieldFilter{"subject": {None: []string{"x"}}},
	})
	if !reflect.DeepEqual(res.IDs, []string{"r2"}) {
		t.Fatalf("field-absent record should pass none, got %v", res.IDs)
	}
}

func TestSearchRepeatedAll(t *testing.T) {
	repos := threeSubjectRows(t)
	res := search(t, repos, types.SearchRequest{
		Filters: map[string]types.FieldFilter{"subject": {All: []string{"b", "c"}}},
	})
	if !reflect.DeepEqual(res.IDs, []string{"r2"}) {
		t.Fatalf("all = %v, want [r2]", res.IDs)
	}
}

func TestSearchFreeText(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "Roads", text: "r1 Roads of Kenya transportation"},
		{id: "r2", title: "Rivers", text: "r2 Rivers of Norway"},
	})
	res := search(t, repos, types.SearchRequest{Q: "KENYA"})
	if !reflect.DeepEqual(res.IDs, []string{"r1"}) {
		t.Fatalf("free text should match case-insensitively, got %v", res.IDs)
	}

	res = search(t, repos, types.SearchRequest{Q: "glaciers"})
	if len(res.IDs) != 0 || res.Total != 0 {
		t.Fatalf("no-hit query should return an empty well-formed result, got %+v", res)
	}
	if res.IDs == nil || res.Facets == nil {
		t.Fatalf("result slices must be non-nil")
	}
}

func TestSearchFreeTextEscapesWildcards(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "Percent", text: "coverage 100% complete"},
		{id: "r2", title: "Plain", text: "coverage 100 complete"},
	})
	res := search(t, repos, types.SearchRequest{Q: "100%"})
	if !reflect.DeepEqual(res.IDs, []string{"r1"}) {
		t.Fatalf("literal %% should not act as a wildcard, got %v", res.IDs)
	}
}

func TestSearchSpatial(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "Kenya", bbox: box(-10, 10, -20, 20)},
		{id: "r2", title: "Nowhere"}, // null geometry
	})
	res := search(t, repos, types.SearchRequest{BBox: &types.BBox{MinX: -5, MinY: -5, MaxX: 5, MaxY: 5}})
	if !reflect.DeepEqual(res.IDs, []string{"r1"}) {
		t.Fatalf("contained query should match, got %v", res.IDs)
	}

	res = search(t, repos, types.SearchRequest{BBox: &types.BBox{MinX: 50, MinY: 50, MaxX: 60, MaxY: 60}})
	if len(res.IDs) != 0 {
		t.Fatalf("disjoint query should match nothing, got %v", res.IDs)
	}
}

func TestSearchSpatialOrderedByOverlap(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "wide", title: "A Whole Continent", bbox: box(-100, 100, -80, 80)},
		{id: "tight", title: "Z Exact Match", bbox: box(0, 10, 0, 10)},
	})
	res := search(t, repos, types.SearchRequest{BBox: &types.BBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}})
	if !reflect.DeepEqual(res.IDs, []string{"tight", "wide"}) {
		t.Fatalf("tighter overlap should sort first regardless of title, got %v", res.IDs)
	}
}

func TestSearchSortDefaultAndPage(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r3", title: "Charlie"},
		{id: "r1", title: "Alpha"},
		{id: "r2", title: "Bravo"},
	})
	res := search(t, repos, types.SearchRequest{})
	if !reflect.DeepEqual(res.IDs, []string{"r1", "r2", "r3"}) {
		t.Fatalf("default sort = %v, want title ASC", res.IDs)
	}

	res = search(t, repos, types.SearchRequest{Page: types.Page{Size: 1, Offset: 1}})
	if !reflect.DeepEqual(res.IDs, []string{"r2"}) {
		t.Fatalf("page = %v, want [r2]", res.IDs)
	}
	if res.Total != 3 {
		t.Fatalf("total should ignore paging, got %d", res.Total)
	}
}

func TestSearchSortYearInvalidLast(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "A", year: "1900"},
		{id: "r2", title: "B", year: "1850"},
		{id: "r3", title: "C", year: "circa 1800"},
	})
	res := search(t, repos, types.SearchRequest{Sort: types.Sort{Field: "year"}})
	if !reflect.DeepEqual(res.IDs, []string{"r2", "r1", "r3"}) {
		t.Fatalf("year sort = %v, want invalids last", res.IDs)
	}

	res = search(t, repos, types.SearchRequest{Sort: types.Sort{Field: "year", Desc: true}})
	if !reflect.DeepEqual(res.IDs, []string{"r1", "r2", "r3"}) {
		t.Fatalf("year desc = %v, want invalids still last", res.IDs)
	}
}

func TestSearchNumericBounds(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "A", year: "1900"},
		{id: "r2", title: "B", year: "1850"},
		{id: "r3", title: "C", year: "unknown"},
	})
	gte, lte := 1860, 1950
	res := search(t, repos, types.SearchRequest{
		Filters: map[string]types.FieldFilter{"year": {Gte: &gte, Lte: &lte}},
	})
	if !reflect.DeepEqual(res.IDs, []string{"r1"}) {
		t.Fatalf("bounds = %v, want [r1] with non-numeric excluded", res.IDs)
	}
}

func TestNumericBoundsKeepCastBehindCase(t *testing.T) {
	// Postgres may evaluate WHERE quals in any order, so the cast must sit
	// inside a CASE arm rather than behind an AND with the guard.
	repo := NewSearchRepo(nil, "postgres", testutil.Logger(t)).(*searchRepo)
	gte, lte := 1800, 1900
	conds, args := repo.scalarConds("year", types.FieldFilter{Gte: &gte, Lte: &lte})
	if len(conds) != 2 || len(args) != 2 {
		t.Fatalf("conds = %v args = %v, want one predicate per bound", conds, args)
	}
	for _, c := range conds {
		if !strings.Contains(c, "CASE WHEN") || !strings.Contains(c, "THEN CAST(r.year AS INTEGER) END") {
			t.Fatalf("predicate %q does not guard the cast with CASE", c)
		}
		if strings.Contains(c, ") AND CAST(") {
			t.Fatalf("predicate %q exposes the cast to eager qual evaluation", c)
		}
	}
}

func TestSearchFacetSelfExclusion(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "A", format: "Shapefile", subjects: []string{"roads"}},
		{id: "r2", title: "B", format: "GeoTIFF", subjects: []string{"roads"}},
		{id: "r3", title: "C", format: "Shapefile", subjects: []string{"rivers"}},
	})
	res := search(t, repos, types.SearchRequest{
		Filters: map[string]types.FieldFilter{
			"subject": {Any: []string{"roads"}},
			"format":  {Any: []string{"Shapefile"}},
		},
		Facets: []types.FacetRequest{{Field: "subject"}, {Field: "format"}},
	})
	// narrowed set is r1 only
	if !reflect.DeepEqual(res.IDs, []string{"r1"}) {
		t.Fatalf("ids = %v", res.IDs)
	}
	// subject facet drops its own filter but keeps format=Shapefile: r1, r3
	wantSubjects := []types.FacetValue{{Value: "rivers", Count: 1}, {Value: "roads", Count: 1}}
	if !reflect.DeepEqual(res.Facets["subject"], wantSubjects) {
		t.Fatalf("subject facet = %v, want %v", res.Facets["subject"], wantSubjects)
	}
	// format facet drops its own filter but keeps subject=roads: r1, r2
	wantFormats := []types.FacetValue{{Value: "GeoTIFF", Count: 1}, {Value: "Shapefile", Count: 1}}
	if !reflect.DeepEqual(res.Facets["format"], wantFormats) {
		t.Fatalf("format facet = %v, want %v", res.Facets["format"], wantFormats)
	}
}

func TestSearchFacetLimitTruncation(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "A", subjects: []string{"x", "y", "z"}},
	})
	res := search(t, repos, types.SearchRequest{
		Facets: []types.FacetRequest{{Field: "subject", Limit: 2}},
	})
	// one row past the limit signals truncation
	if got := len(res.Facets["subject"]); got != 3 {
		t.Fatalf("facet rows = %d, want limit+1 = 3", got)
	}
}

func TestSearchFacetCountsDistinctRecords(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "A", subjects: []string{"roads"}},
		{id: "r2", title: "B", subjects: []string{"roads"}},
	})
	res := search(t, repos, types.SearchRequest{
		Facets: []types.FacetRequest{{Field: "subject"}},
	})
	want := []types.FacetValue{{Value: "roads", Count: 2}}
	if !reflect.DeepEqual(res.Facets["subject"], want) {
		t.Fatalf("facet = %v, want %v", res.Facets["subject"], want)
	}
}

func TestSearchYearFacetNumericOrder(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "A", year: "1900"},
		{id: "r2", title: "B", year: "99"},
		{id: "r3", title: "C", year: "1850"},
	})
	res := search(t, repos, types.SearchRequest{
		Facets: []types.FacetRequest{{Field: "year"}},
	})
	got := make([]string, 0, 3)
	for _, fv := range res.Facets["year"] {
		got = append(got, fv.Value)
	}
	if !reflect.DeepEqual(got, []string{"99", "1850", "1900"}) {
		t.Fatalf("year facet order = %v, want numeric ascending", got)
	}
}

func TestSearchUnknownFilterIgnored(t *testing.T) {
	repos := threeSubjectRows(t)
	res := search(t, repos, types.SearchRequest{
		Filters: map[string]types.FieldFilter{"no_such_field": {Any: []string{"x"}}},
	})
	if res.Total != 3 {
		t.Fatalf("unknown filter should be ignored, got total %d", res.Total)
	}
}

func TestSearchTextAndFilterCombined(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "r1", title: "Roads", subjects: []string{"transport"}, text: "r1 kenya roads"},
		{id: "r2", title: "Rails", subjects: []string{"transport"}, text: "r2 norway rails"},
		{id: "r3", title: "Kenya Life", subjects: []string{"culture"}, text: "r3 kenya culture"},
	})
	res := search(t, repos, types.SearchRequest{
		Q:       "kenya",
		Filters: map[string]types.FieldFilter{"subject": {Any: []string{"transport"}}},
	})
	if !reflect.DeepEqual(res.IDs, []string{"r1"}) {
		t.Fatalf("combined = %v, want [r1]", res.IDs)
	}
}

func TestNeighbors(t *testing.T) {
	repos := seedCatalog(t, testutil.DB(t), []seed{
		{id: "a", title: "Alpha"},
		{id: "b", title: "Bravo"},
		{id: "c", title: "Charlie"},
	})
	nb, err := repos.Search.Neighbors(context.Background(), nil, "b", types.SearchRequest{})
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	want := types.Neighbors{PrevID: "a", NextID: "c", Position: 2, Total: 3}
	if nb != want {
		t.Fatalf("neighbors = %+v, want %+v", nb, want)
	}

	nb, err = repos.Search.Neighbors(context.Background(), nil, "a", types.SearchRequest{})
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	if nb.PrevID != "" || nb.NextID != "b" || nb.Position != 1 {
		t.Fatalf("first record neighbors = %+v", nb)
	}

	nb, err = repos.Search.Neighbors(context.Background(), nil, "missing", types.SearchRequest{})
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	if nb.Position != 0 {
		t.Fatalf("missing id should report position 0, got %+v", nb)
	}
}
