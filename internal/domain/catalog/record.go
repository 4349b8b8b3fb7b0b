package catalog

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/yungbote/geocatalog-backend/internal/pkg/errors"
)

// Record is the nested document form of one catalog entry: scalars and
// repeated fields keyed by schema field name, a JSON-encoded references map,
// and an extra bag preserving unmodeled keys for round-trip fidelity.
type Record struct {
	ID         string
	Scalars    map[string]string
	Repeated   map[string][]string
	References string
	Embedding  []float64
	Thumbnail  []byte
	Extra      map[string]any
}

func NewRecord(id string) *Record {
	return &Record{
		ID:       id,
		Scalars:  map[string]string{},
		Repeated: map[string][]string{},
		Extra:    map[string]any{},
	}
}

func (r *Record) Scalar(name string) string {
	if name == FieldID {
		return r.ID
	}
	return r.Scalars[name]
}

func (r *Record) SetScalar(name, value string) {
	if name == FieldID {
		r.ID = value
		return
	}
	if r.Scalars == nil {
		r.Scalars = map[string]string{}
	}
	r.Scalars[name] = value
}

func (r *Record) Values(name string) []string {
	return r.Repeated[name]
}

func (r *Record) SetValues(name string, values []string) {
	if r.Repeated == nil {
		r.Repeated = map[string][]string{}
	}
	r.Repeated[name] = values
}

// Validate checks the required fields. The first missing field is reported.
func (r *Record) Validate() error {
	for _, name := range RequiredFields {
		switch {
		case name == FieldID:
			if strings.TrimSpace(r.ID) == "" {
				return fmt.Errorf("%w: %s", apperrors.ErrMissingRequiredField, name)
			}
		case IsRepeatedField(name):
			if !hasNonEmpty(r.Repeated[name]) {
				return fmt.Errorf("%w: %s", apperrors.ErrMissingRequiredField, name)
			}
		default:
			if strings.TrimSpace(r.Scalars[name]) == "" {
				return fmt.Errorf("%w: %s", apperrors.ErrMissingRequiredField, name)
			}
		}
	}
	return nil
}

func hasNonEmpty(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// ParseFlexibleBool parses the flat boolean vocabulary: 1/true/yes/y in any
// case are true, everything else is false.
func ParseFlexibleBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func (r *Record) MarshalJSON() ([]byte, error) {
	doc := map[string]any{}
	for k, v := range r.Extra {
		doc[k] = v
	}
	doc[FieldID] = r.ID
	for name, v := range r.Scalars {
		if v == "" {
			continue
		}
		if IsBooleanField(name) {
			doc[name] = ParseFlexibleBool(v)
			continue
		}
		doc[name] = v
	}
	for name, vs := range r.Repeated {
		if len(vs) == 0 {
			continue
		}
		doc[name] = vs
	}
	if r.References != "" {
		doc[FieldReferences] = r.References
	}
	if len(r.Embedding) > 0 {
		doc["embedding"] = r.Embedding
	}
	if len(r.Thumbnail) > 0 {
		doc["thumbnail"] = r.Thumbnail
	}
	return json.Marshal(doc)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := NewRecord("")
	for key, raw := range doc {
		switch {
		case key == FieldID:
			out.ID = coerceString(raw)
		case key == FieldReferences:
			out.References = coerceReferences(raw)
		case key == "embedding":
			out.Embedding = coerceFloats(raw)
		case key == "thumbnail":
			if s, ok := raw.(string); ok {
				if b, err := base64.StdEncoding.DecodeString(s); err == nil {
					out.Thumbnail = b
				}
			}
		case IsRepeatedField(key):
			out.Repeated[key] = coerceStrings(raw)
		case IsScalarField(key):
			out.Scalars[key] = coerceString(raw)
		default:
			out.Extra[key] = raw
		}
	}
	*r = *out
	return nil
}

// coerceStrings normalizes a scalar-typed repeated value into a one-element
// array; arrays keep their order.
func coerceStrings(raw any) []string {
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			out = append(out, coerceString(elem))
		}
		return out
	case nil:
		return nil
	default:
		return []string{coerceString(raw)}
	}
}

func coerceString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// coerceReferences keeps references as the JSON-encoded string the contract
// specifies; an inline object is re-encoded for tolerance.
func coerceReferences(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		enc, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(enc)
	}
}

func coerceFloats(raw any) []float64 {
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, elem := range arr {
		f, ok := elem.(float64)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}
