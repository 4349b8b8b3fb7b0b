package catalog

// The faceted-search request/response shapes below are the contract surface
// consumed by the presentation layer; field names are load-bearing.

// FieldFilter narrows one field. Any is an OR over the set, None excludes
// (field-absent records pass), All demands every listed value, Gte/Lte bound
// the integer cast of a scalar.
type FieldFilter struct {
	Any  []string `json:"any,omitempty"`
	None []string `json:"none,omitempty"`
	All  []string `json:"all,omitempty"`
	Gte  *int     `json:"gte,omitempty"`
	Lte  *int     `json:"lte,omitempty"`
}

func (f FieldFilter) Empty() bool {
	return len(f.Any) == 0 && len(f.None) == 0 && len(f.All) == 0 && f.Gte == nil && f.Lte == nil
}

// BBox is a query envelope in minX/minY/maxX/maxY (lon/lat) form.
type BBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

type Sort struct {
	Field string `json:"field,omitempty"`
	Desc  bool   `json:"desc,omitempty"`
}

type Page struct {
	Size   int `json:"size,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type FacetRequest struct {
	Field string `json:"field"`
	Limit int    `json:"limit,omitempty"`
}

type SearchRequest struct {
	Q       string                 `json:"q,omitempty"`
	Filters map[string]FieldFilter `json:"filters,omitempty"`
	BBox    *BBox                  `json:"bbox,omitempty"`
	Sort    Sort                   `json:"sort,omitempty"`
	Page    Page                   `json:"page,omitempty"`
	Facets  []FacetRequest         `json:"facets,omitempty"`
}

type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// SearchResult is always well-formed: a failed search degrades to zero ids
// and zero total rather than an error. Facet lists carry one row beyond the
// requested limit when truncated.
type SearchResult struct {
	IDs    []string                `json:"ids"`
	Total  int64                   `json:"total"`
	Facets map[string][]FacetValue `json:"facets"`
}

// Neighbors locates a record inside its sorted result set. Position is
// 1-based; Prev/Next are empty at the edges.
type Neighbors struct {
	PrevID   string `json:"prev_id,omitempty"`
	NextID   string `json:"next_id,omitempty"`
	Position int    `json:"position"`
	Total    int64  `json:"total"`
}
