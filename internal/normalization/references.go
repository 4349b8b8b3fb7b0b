package normalization

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/geocatalog-backend/internal/domain/catalog"
)

// referenceTarget is one URL entry inside a references map value.
type referenceTarget struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// ExtractDistributions parses a references JSON string
// (relation-key -> bare URL | [URL | {url,label}]) into distribution rows
// for the given record. Malformed JSON yields an empty list, never an error.
func ExtractDistributions(refsJSON, resourceID string) []catalog.Distribution {
	refsJSON = strings.TrimSpace(refsJSON)
	if refsJSON == "" {
		return []catalog.Distribution{}
	}
	var refs map[string]any
	if err := json.Unmarshal([]byte(refsJSON), &refs); err != nil {
		return []catalog.Distribution{}
	}
	keys := make([]string, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []catalog.Distribution{}
	for _, key := range keys {
		for _, target := range parseTargets(refs[key]) {
			if target.URL == "" {
				continue
			}
			out = append(out, catalog.Distribution{
				ID:          uuid.New(),
				ResourceID:  resourceID,
				RelationKey: key,
				URL:         target.URL,
				Label:       target.Label,
			})
		}
	}
	return out
}

func parseTargets(raw any) []referenceTarget {
	switch v := raw.(type) {
	case string:
		return []referenceTarget{{URL: strings.TrimSpace(v)}}
	case []any:
		out := make([]referenceTarget, 0, len(v))
		for _, elem := range v {
			switch t := elem.(type) {
			case string:
				out = append(out, referenceTarget{URL: strings.TrimSpace(t)})
			case map[string]any:
				out = append(out, referenceTarget{
					URL:   strings.TrimSpace(asString(t["url"])),
					Label: strings.TrimSpace(asString(t["label"])),
				})
			}
		}
		return out
	case map[string]any:
		return []referenceTarget{{
			URL:   strings.TrimSpace(asString(v["url"])),
			Label: strings.TrimSpace(asString(v["label"])),
		}}
	default:
		return nil
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// BuildReferencesJSON folds distribution rows back into a references map,
// keeping relation keys one-to-many: a single unlabeled URL emits as a bare
// string, anything else as an array. Returns ok=false for zero
// distributions so callers emit nothing instead of an empty object.
func BuildReferencesJSON(dists []catalog.Distribution) (string, bool) {
	if len(dists) == 0 {
		return "", false
	}
	grouped := map[string][]referenceTarget{}
	for _, d := range dists {
		grouped[d.RelationKey] = append(grouped[d.RelationKey], referenceTarget{URL: d.URL, Label: d.Label})
	}
	refs := map[string]any{}
	for key, targets := range grouped {
		if len(targets) == 1 && targets[0].Label == "" {
			refs[key] = targets[0].URL
			continue
		}
		arr := make([]any, 0, len(targets))
		for _, t := range targets {
			if t.Label == "" {
				arr = append(arr, t.URL)
			} else {
				arr = append(arr, t)
			}
		}
		refs[key] = arr
	}
	enc, err := json.Marshal(refs)
	if err != nil {
		return "", false
	}
	return string(enc), true
}

// FoldReferencesLegacy emits the historical single-valued map where a
// repeated relation key collapses last-write-wins. Lossy; kept only for the
// legacy flat export surface.
func FoldReferencesLegacy(dists []catalog.Distribution) (string, bool) {
	if len(dists) == 0 {
		return "", false
	}
	refs := map[string]string{}
	for _, d := range dists {
		refs[d.RelationKey] = d.URL
	}
	enc, err := json.Marshal(refs)
	if err != nil {
		return "", false
	}
	return string(enc), true
}
