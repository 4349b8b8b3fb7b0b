package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

const (
	defaultPageSize   = 20
	defaultFacetLimit = 10
)

// SearchRepo compiles a faceted-search request into relational queries.
// Expensive predicates (free text, spatial) are materialized once into a
// per-call temporary id table that every narrowing and facet query joins
// against; the table never outlives the call.
type SearchRepo interface {
	Search(ctx context.Context, tx *gorm.DB, req types.SearchRequest) (types.SearchResult, error)
	Neighbors(ctx context.Context, tx *gorm.DB, id string, req types.SearchRequest) (types.Neighbors, error)
}

type searchRepo struct {
	db      *gorm.DB
	dialect string
	log     *logger.Logger
}

func NewSearchRepo(db *gorm.DB, dialect string, baseLog *logger.Logger) SearchRepo {
	return &searchRepo{db: db, dialect: dialect, log: baseLog.With("repo", "SearchRepo")}
}

func (r *searchRepo) Search(ctx context.Context, tx *gorm.DB, req types.SearchRequest) (types.SearchResult, error) {
	var out types.SearchResult
	err := r.onConn(ctx, tx, func(conn *gorm.DB) error {
		var innerErr error
		out, innerErr = r.searchOn(ctx, conn, req)
		return innerErr
	})
	return out, err
}

func (r *searchRepo) Neighbors(ctx context.Context, tx *gorm.DB, id string, req types.SearchRequest) (types.Neighbors, error) {
	var out types.Neighbors
	err := r.onConn(ctx, tx, func(conn *gorm.DB) error {
		var innerErr error
		out, innerErr = r.neighborsOn(ctx, conn, id, req)
		return innerErr
	})
	return out, err
}

// onConn pins the whole call to one connection so the temporary hit table is
// visible to every sub-query. A caller-provided transaction is already
// pinned.
func (r *searchRepo) onConn(ctx context.Context, tx *gorm.DB, fn func(conn *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return r.db.WithContext(ctx).Connection(fn)
}

func (r *searchRepo) searchOn(ctx context.Context, conn *gorm.DB, req types.SearchRequest) (types.SearchResult, error) {
	res := types.SearchResult{IDs: []string{}, Facets: map[string][]types.FacetValue{}}

	hits, cleanup, err := r.materializeHits(ctx, conn, req)
	if err != nil {
		return res, fmt.Errorf("materialize hits: %w", err)
	}
	defer cleanup()

	base, args := r.compile(req, hits, "")

	var total int64
	if err := conn.WithContext(ctx).Raw("SELECT COUNT(*) "+base, args...).Scan(&total).Error; err != nil {
		return res, fmt.Errorf("count: %w", err)
	}
	res.Total = total

	orderSQL, orderArgs := r.orderClause(req)
	size := req.Page.Size
	if size <= 0 {
		size = defaultPageSize
	}
	offset := req.Page.Offset
	if offset < 0 {
		offset = 0
	}
	idSQL := "SELECT r.id " + base + " ORDER BY " + orderSQL + " LIMIT ? OFFSET ?"
	idArgs := make([]any, 0, len(args)+len(orderArgs)+2)
	idArgs = append(idArgs, args...)
	idArgs = append(idArgs, orderArgs...)
	idArgs = append(idArgs, size, offset)

	var ids []string
	if err := conn.WithContext(ctx).Raw(idSQL, idArgs...).Scan(&ids).Error; err != nil {
		return res, fmt.Errorf("id page: %w", err)
	}
	if ids != nil {
		res.IDs = ids
	}

	// One facet failing empties that facet only.
	for _, freq := range req.Facets {
		values, ferr := r.facet(ctx, conn, req, freq, hits)
		if ferr != nil {
			r.log.Warn("facet query failed", "field", freq.Field, "error", ferr)
			values = []types.FacetValue{}
		}
		res.Facets[freq.Field] = values
	}
	return res, nil
}

func (r *searchRepo) neighborsOn(ctx context.Context, conn *gorm.DB, id string, req types.SearchRequest) (types.Neighbors, error) {
	out := types.Neighbors{}

	hits, cleanup, err := r.materializeHits(ctx, conn, req)
	if err != nil {
		return out, fmt.Errorf("materialize hits: %w", err)
	}
	defer cleanup()

	base, args := r.compile(req, hits, "")
	orderSQL, orderArgs := r.orderClause(req)
	sql := "SELECT r.id " + base + " ORDER BY " + orderSQL
	fullArgs := make([]any, 0, len(args)+len(orderArgs))
	fullArgs = append(fullArgs, args...)
	fullArgs = append(fullArgs, orderArgs...)

	var ids []string
	if err := conn.WithContext(ctx).Raw(sql, fullArgs...).Scan(&ids).Error; err != nil {
		return out, fmt.Errorf("ordered ids: %w", err)
	}
	out.Total = int64(len(ids))
	for i, cur := range ids {
		if cur != id {
			continue
		}
		out.Position = i + 1
		if i > 0 {
			out.PrevID = ids[i-1]
		}
		if i < len(ids)-1 {
			out.NextID = ids[i+1]
		}
		return out, nil
	}
	out.Position = 0
	return out, nil
}

// materializeHits creates the scoped temporary id set when a free-text or
// spatial predicate is present. The returned cleanup runs on every exit path.
func (r *searchRepo) materializeHits(ctx context.Context, conn *gorm.DB, req types.SearchRequest) (string, func(), error) {
	noop := func() {}
	q := strings.TrimSpace(req.Q)
	if q == "" && req.BBox == nil {
		return "", noop, nil
	}

	table := "search_hits_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := conn.WithContext(ctx).Exec(fmt.Sprintf("CREATE TEMPORARY TABLE %s (id TEXT PRIMARY KEY)", table)).Error; err != nil {
		return "", noop, err
	}
	cleanup := func() {
		if derr := conn.Exec("DROP TABLE IF EXISTS " + table).Error; derr != nil {
			r.log.Warn("failed to drop hit table", "table", table, "error", derr)
		}
	}

	conds := []string{}
	args := []any{}
	if q != "" {
		conds = append(conds,
			"EXISTS (SELECT 1 FROM search_documents sd WHERE sd.resource_id = r.id AND lower(sd.text) LIKE ? ESCAPE '\\')")
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
	}
	if bb := req.BBox; bb != nil {
		conds = append(conds, spatialCond)
		args = append(args, bb.MaxX, bb.MinX, bb.MaxY, bb.MinY)
	}
	ins := fmt.Sprintf("INSERT INTO %s (id) SELECT r.id FROM resources r WHERE %s", table, strings.Join(conds, " AND "))
	if err := conn.WithContext(ctx).Exec(ins, args...).Error; err != nil {
		cleanup()
		return "", noop, err
	}
	return table, cleanup, nil
}

// Rows lacking a parsed envelope never match a spatial query.
const spatialCond = "r.bbox_west IS NOT NULL AND r.bbox_east IS NOT NULL AND r.bbox_south IS NOT NULL AND r.bbox_north IS NOT NULL" +
	" AND r.bbox_west <= ? AND r.bbox_east >= ? AND r.bbox_south <= ? AND r.bbox_north >= ?"

// compile renders the shared FROM/WHERE tail. excludeField drops that
// field's own filter, which is how facet self-exclusion works.
func (r *searchRepo) compile(req types.SearchRequest, hits, excludeField string) (string, []any) {
	var b strings.Builder
	b.WriteString("FROM resources r")
	if hits != "" {
		fmt.Fprintf(&b, " JOIN %s h ON h.id = r.id", hits)
	}
	conds, args := r.filterConds(req.Filters, excludeField)
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	return b.String(), args
}

func (r *searchRepo) filterConds(filters map[string]types.FieldFilter, exclude string) ([]string, []any) {
	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	conds := []string{}
	args := []any{}
	for _, field := range fields {
		f := filters[field]
		if field == exclude || f.Empty() {
			continue
		}
		switch {
		case types.IsRepeatedField(field):
			c, a := r.repeatedConds(field, f)
			conds = append(conds, c...)
			args = append(args, a...)
		case types.IsScalarField(field) && field != "id":
			c, a := r.scalarConds(field, f)
			conds = append(conds, c...)
			args = append(args, a...)
		case field == "id":
			if len(f.Any) > 0 {
				conds = append(conds, "r.id IN ?")
				args = append(args, f.Any)
			}
		default:
			r.log.Warn("ignoring filter on unknown field", "field", field)
		}
	}
	return conds, args
}

func (r *searchRepo) scalarConds(field string, f types.FieldFilter) ([]string, []any) {
	col := "r." + field
	conds := []string{}
	args := []any{}
	if len(f.Any) > 0 {
		conds = append(conds, col+" IN ?")
		args = append(args, f.Any)
	}
	if len(f.None) > 0 {
		// field-absent rows pass the exclusion
		conds = append(conds, "("+col+" IS NULL OR "+col+" = '' OR "+col+" NOT IN ?)")
		args = append(args, f.None)
	}
	if len(f.All) == 1 {
		conds = append(conds, col+" = ?")
		args = append(args, f.All[0])
	} else if len(f.All) > 1 {
		// a scalar cannot carry two values
		conds = append(conds, "1 = 0")
	}
	// CASE keeps the CAST away from non-numeric values regardless of how the
	// planner orders the quals; a NULL arm fails the comparison and the row
	// is excluded.
	if f.Gte != nil {
		conds = append(conds, "(CASE WHEN "+r.numericGuard(col)+" THEN CAST("+col+" AS INTEGER) END >= ?)")
		args = append(args, *f.Gte)
	}
	if f.Lte != nil {
		conds = append(conds, "(CASE WHEN "+r.numericGuard(col)+" THEN CAST("+col+" AS INTEGER) END <= ?)")
		args = append(args, *f.Lte)
	}
	return conds, args
}

func (r *searchRepo) repeatedConds(field string, f types.FieldFilter) ([]string, []any) {
	conds := []string{}
	args := []any{}
	if len(f.Any) > 0 {
		conds = append(conds,
			"EXISTS (SELECT 1 FROM resources_mv mv WHERE mv.resource_id = r.id AND mv.field_name = ? AND mv.value IN ?)")
		args = append(args, field, f.Any)
	}
	if len(f.None) > 0 {
		conds = append(conds,
			"NOT EXISTS (SELECT 1 FROM resources_mv mv WHERE mv.resource_id = r.id AND mv.field_name = ? AND mv.value IN ?)")
		args = append(args, field, f.None)
	}
	if len(f.All) > 0 {
		conds = append(conds,
			"(SELECT COUNT(DISTINCT mv.value) FROM resources_mv mv WHERE mv.resource_id = r.id AND mv.field_name = ? AND mv.value IN ?) = ?")
		args = append(args, field, f.All, len(f.All))
	}
	if f.Gte != nil || f.Lte != nil {
		r.log.Warn("ignoring numeric bound on repeated field", "field", field)
	}
	return conds, args
}

// numericGuard is true only when the expression casts cleanly to an integer;
// non-numeric values fail the cast and are excluded.
func (r *searchRepo) numericGuard(expr string) string {
	if r.dialect == "postgres" {
		return "(" + expr + " ~ '^[0-9]+$')"
	}
	return "(" + expr + " <> '' AND " + expr + " NOT GLOB '*[^0-9]*')"
}

func (r *searchRepo) orderClause(req types.SearchRequest) (string, []any) {
	field := strings.TrimSpace(req.Sort.Field)
	dir := "ASC"
	if req.Sort.Desc {
		dir = "DESC"
	}
	switch {
	case field == "":
		if req.BBox != nil {
			// spatial relevance replaces the default comparator only
			expr, args := r.iouExpr(*req.BBox)
			return expr + " DESC, r.title ASC", args
		}
		return "r.title ASC", nil
	case field == types.OrdinalField:
		guard := r.numericGuard("r." + field)
		return "CASE WHEN " + guard + " THEN 0 ELSE 1 END ASC" +
			", CASE WHEN " + guard + " THEN CAST(r." + field + " AS INTEGER) ELSE 0 END " + dir +
			", r.title ASC", nil
	case field == "title":
		return "r.title " + dir, nil
	case types.IsScalarField(field) || types.IsRepeatedField(field):
		return "r." + field + " " + dir + ", r.title ASC", nil
	default:
		return "r.title ASC", nil
	}
}

// iouExpr scores geometry overlap against the query envelope as
// intersection-over-union, zero for rows without geometry.
func (r *searchRepo) iouExpr(bb types.BBox) (string, []any) {
	g, l := "MAX", "MIN"
	if r.dialect == "postgres" {
		g, l = "GREATEST", "LEAST"
	}
	inter := fmt.Sprintf(
		"(%s(%s(r.bbox_east, ?) - %s(r.bbox_west, ?), 0) * %s(%s(r.bbox_north, ?) - %s(r.bbox_south, ?), 0))",
		g, l, g, g, l, g,
	)
	interArgs := []any{bb.MaxX, bb.MinX, bb.MaxY, bb.MinY}
	union := "((r.bbox_east - r.bbox_west) * (r.bbox_north - r.bbox_south) + ? - " + inter + ")"
	qArea := (bb.MaxX - bb.MinX) * (bb.MaxY - bb.MinY)
	unionArgs := make([]any, 0, 5)
	unionArgs = append(unionArgs, qArea)
	unionArgs = append(unionArgs, interArgs...)

	expr := "(CASE WHEN r.bbox_west IS NULL THEN 0 WHEN " + union + " <= 0 THEN 0 ELSE " + inter + " * 1.0 / " + union + " END)"
	args := make([]any, 0, 15)
	args = append(args, unionArgs...)
	args = append(args, interArgs...)
	args = append(args, unionArgs...)
	return expr, args
}

func (r *searchRepo) facet(ctx context.Context, conn *gorm.DB, req types.SearchRequest, freq types.FacetRequest, hits string) ([]types.FacetValue, error) {
	limit := freq.Limit
	if limit <= 0 {
		limit = defaultFacetLimit
	}
	conds, condArgs := r.filterConds(req.Filters, freq.Field)

	var (
		sql     string
		args    []any
		valExpr string
	)
	switch {
	case types.IsRepeatedField(freq.Field):
		valExpr = "mv.value"
		from := "FROM resources_mv mv JOIN resources r ON r.id = mv.resource_id"
		if hits != "" {
			from += fmt.Sprintf(" JOIN %s h ON h.id = r.id", hits)
		}
		where := append([]string{"mv.field_name = ?"}, conds...)
		args = append(args, freq.Field)
		args = append(args, condArgs...)
		sql = "SELECT mv.value AS value, COUNT(DISTINCT mv.resource_id) AS n " + from +
			" WHERE " + strings.Join(where, " AND ") + " GROUP BY mv.value"
	case types.IsScalarField(freq.Field) && freq.Field != "id":
		valExpr = "r." + freq.Field
		from := "FROM resources r"
		if hits != "" {
			from += fmt.Sprintf(" JOIN %s h ON h.id = r.id", hits)
		}
		where := append([]string{valExpr + " IS NOT NULL", valExpr + " <> ''"}, conds...)
		args = append(args, condArgs...)
		sql = "SELECT " + valExpr + " AS value, COUNT(*) AS n " + from +
			" WHERE " + strings.Join(where, " AND ") + " GROUP BY " + valExpr
	default:
		return []types.FacetValue{}, nil
	}

	if freq.Field == types.OrdinalField {
		guard := r.numericGuard(valExpr)
		sql += " ORDER BY CASE WHEN " + guard + " THEN CAST(" + valExpr + " AS INTEGER) ELSE 2147483647 END ASC, " + valExpr + " ASC"
	} else {
		sql += " ORDER BY n DESC, value ASC"
	}
	sql += " LIMIT ?"
	// one row past the limit lets the caller detect truncation
	args = append(args, limit+1)

	var raw []struct {
		Value string
		N     int64
	}
	if err := conn.WithContext(ctx).Raw(sql, args...).Scan(&raw).Error; err != nil {
		return nil, err
	}
	out := make([]types.FacetValue, 0, len(raw))
	for _, row := range raw {
		out = append(out, types.FacetValue{Value: row.Value, Count: row.N})
	}
	return out, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
