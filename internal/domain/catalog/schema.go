package catalog

// The catalog schema is fixed: a wide scalar table mirrored by an
// entity-attribute-value table for the repeated fields. Field names double as
// column names everywhere (wide table columns, EAV field_name values, CSV
// canonical headers, JSON document keys).

const (
	FieldID              = "id"
	FieldTitle           = "title"
	FieldAccessRights    = "access_rights"
	FieldMetadataVersion = "metadata_version"
	FieldFormat          = "format"
	FieldProvider        = "provider"
	FieldIssued          = "issued"
	FieldBbox            = "bbox"
	FieldFileSize        = "file_size"
	FieldSuppressed      = "suppressed"
	FieldGeoreferenced   = "georeferenced"
	FieldYear            = "year"

	FieldResourceClass = "resource_class"
	FieldReferences    = "references"
)

// OrdinalField sorts and facets numerically (integer cast, invalid values
// last) instead of lexically.
const OrdinalField = FieldYear

// ScalarFields lists the wide-table scalar columns, id first.
var ScalarFields = []string{
	FieldID,
	FieldTitle,
	FieldAccessRights,
	FieldMetadataVersion,
	FieldFormat,
	FieldProvider,
	FieldIssued,
	FieldBbox,
	FieldFileSize,
	FieldSuppressed,
	FieldGeoreferenced,
	FieldYear,
}

// RepeatedFields lists every multivalued field. Each gets a pipe-joined
// column on the wide table and one EAV row per element.
var RepeatedFields = []string{
	"alternative_title",
	"description",
	"language",
	"display_note",
	"creator",
	"publisher",
	FieldResourceClass,
	"resource_type",
	"subject",
	"theme",
	"keyword",
	"temporal_coverage",
	"date_range",
	"spatial_coverage",
	"member_of",
	"is_part_of",
	"source",
	"is_version_of",
	"replaces",
	"is_replaced_by",
	"relation",
	"rights",
	"rights_holder",
	"license",
}

// RequiredFields must be present (non-empty) on every stored record.
var RequiredFields = []string{
	FieldID,
	FieldTitle,
	FieldAccessRights,
	FieldMetadataVersion,
	FieldResourceClass,
}

// BooleanFields hold literal "true"/"false" in flat form.
var BooleanFields = []string{FieldSuppressed, FieldGeoreferenced}

var (
	scalarSet   = toSet(ScalarFields)
	repeatedSet = toSet(RepeatedFields)
	requiredSet = toSet(RequiredFields)
	booleanSet  = toSet(BooleanFields)
)

func IsScalarField(name string) bool   { return scalarSet[name] }
func IsRepeatedField(name string) bool { return repeatedSet[name] }
func IsRequiredField(name string) bool { return requiredSet[name] }
func IsBooleanField(name string) bool  { return booleanSet[name] }

// IsKnownField reports whether name is modeled at all; unknown keys ride in
// the record's extra bag.
func IsKnownField(name string) bool {
	return scalarSet[name] || repeatedSet[name] || name == FieldReferences
}

func toSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}
