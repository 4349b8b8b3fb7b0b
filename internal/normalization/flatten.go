package normalization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/geocatalog-backend/internal/domain/catalog"
	apperrors "github.com/yungbote/geocatalog-backend/internal/pkg/errors"
)

// Separator joins repeated-field elements in flat form.
const Separator = "|"

// ColumnarRow keeps repeated fields as native ordered arrays.
type ColumnarRow struct {
	Scalars  map[string]string
	Repeated map[string][]string
}

// NormalizeValues trims elements, drops empties, de-duplicates and sorts.
// This is the documented lossy normalization of the flat form: two records
// differing only in array order or duplicates flatten identically.
func NormalizeValues(values []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ToFlatRow flattens a record: scalars verbatim (booleans as literal
// "true"/"false"), repeated fields normalized and pipe-joined.
func ToFlatRow(rec *catalog.Record) map[string]string {
	row := map[string]string{catalog.FieldID: rec.ID}
	for _, name := range catalog.ScalarFields {
		if name == catalog.FieldID {
			continue
		}
		v := rec.Scalars[name]
		if v == "" {
			continue
		}
		if catalog.IsBooleanField(name) {
			if catalog.ParseFlexibleBool(v) {
				v = "true"
			} else {
				v = "false"
			}
		}
		row[name] = v
	}
	for _, name := range catalog.RepeatedFields {
		vs := NormalizeValues(rec.Repeated[name])
		if len(vs) == 0 {
			continue
		}
		row[name] = strings.Join(vs, Separator)
	}
	return row
}

// ToColumnarRow keeps repeated fields as ordered arrays, scalars handled as
// in ToFlatRow.
func ToColumnarRow(rec *catalog.Record) ColumnarRow {
	out := ColumnarRow{
		Scalars:  map[string]string{catalog.FieldID: rec.ID},
		Repeated: map[string][]string{},
	}
	for _, name := range catalog.ScalarFields {
		if name == catalog.FieldID {
			continue
		}
		v := rec.Scalars[name]
		if v == "" {
			continue
		}
		if catalog.IsBooleanField(name) {
			if catalog.ParseFlexibleBool(v) {
				v = "true"
			} else {
				v = "false"
			}
		}
		out.Scalars[name] = v
	}
	for _, name := range catalog.RepeatedFields {
		vs := rec.Repeated[name]
		if len(vs) == 0 {
			continue
		}
		out.Repeated[name] = append([]string(nil), vs...)
	}
	return out
}

// SplitFlat is the inverse of the pipe join: a bare string becomes a
// one-element array, an empty string no array at all.
func SplitFlat(flat string) []string {
	if flat == "" {
		return nil
	}
	parts := strings.Split(flat, Separator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FromRow rebuilds a record from a flat row plus its distribution side-list.
// Booleans re-parse case-insensitively from {1,true,yes,y}; distributions
// fold back into the references scalar, relation keys kept one-to-many.
func FromRow(row map[string]string, dists []catalog.Distribution) (*catalog.Record, error) {
	id := strings.TrimSpace(row[catalog.FieldID])
	if id == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingRequiredField, catalog.FieldID)
	}
	rec := catalog.NewRecord(id)
	for _, name := range catalog.ScalarFields {
		if name == catalog.FieldID {
			continue
		}
		v := row[name]
		if v == "" {
			continue
		}
		if catalog.IsBooleanField(name) {
			if catalog.ParseFlexibleBool(v) {
				v = "true"
			} else {
				v = "false"
			}
		}
		rec.Scalars[name] = v
	}
	for _, name := range catalog.RepeatedFields {
		if vs := SplitFlat(row[name]); len(vs) > 0 {
			rec.Repeated[name] = vs
		}
	}
	if refs, ok := BuildReferencesJSON(dists); ok {
		rec.References = refs
	}
	return rec, nil
}

// BuildSearchText concatenates every searchable value of a record into the
// one string the free-text predicate scans.
func BuildSearchText(rec *catalog.Record) string {
	parts := []string{rec.ID}
	for _, name := range catalog.ScalarFields {
		if name == catalog.FieldID {
			continue
		}
		if v := rec.Scalars[name]; v != "" {
			parts = append(parts, v)
		}
	}
	for _, name := range catalog.RepeatedFields {
		for _, v := range rec.Repeated[name] {
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, v)
			}
		}
	}
	return strings.Join(parts, " ")
}
