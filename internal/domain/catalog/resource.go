package catalog

import (
	"time"

	"gorm.io/datatypes"
)

// Resource is the wide-table row: every schema field stored flat as text,
// repeated fields pipe-joined. The derived envelope bounds and the embedding
// vector live alongside the flat columns.
type Resource struct {
	ID string `gorm:"type:text;primaryKey" json:"id"`

	Title           string `gorm:"type:text;not null;default:''" json:"title"`
	AccessRights    string `gorm:"type:text;not null;default:''" json:"access_rights"`
	MetadataVersion string `gorm:"type:text;not null;default:''" json:"metadata_version"`
	Format          string `gorm:"type:text;not null;default:''" json:"format"`
	Provider        string `gorm:"type:text;not null;default:''" json:"provider"`
	Issued          string `gorm:"type:text;not null;default:''" json:"issued"`
	Bbox            string `gorm:"type:text;not null;default:''" json:"bbox"`
	FileSize        string `gorm:"type:text;not null;default:''" json:"file_size"`
	Suppressed      string `gorm:"type:text;not null;default:''" json:"suppressed"`
	Georeferenced   string `gorm:"type:text;not null;default:''" json:"georeferenced"`
	Year            string `gorm:"type:text;not null;default:''" json:"year"`

	AlternativeTitle string `gorm:"type:text;not null;default:''" json:"alternative_title"`
	Description      string `gorm:"type:text;not null;default:''" json:"description"`
	Language         string `gorm:"type:text;not null;default:''" json:"language"`
	DisplayNote      string `gorm:"type:text;not null;default:''" json:"display_note"`
	Creator          string `gorm:"type:text;not null;default:''" json:"creator"`
	Publisher        string `gorm:"type:text;not null;default:''" json:"publisher"`
	ResourceClass    string `gorm:"type:text;not null;default:''" json:"resource_class"`
	ResourceType     string `gorm:"type:text;not null;default:''" json:"resource_type"`
	Subject          string `gorm:"type:text;not null;default:''" json:"subject"`
	Theme            string `gorm:"type:text;not null;default:''" json:"theme"`
	Keyword          string `gorm:"type:text;not null;default:''" json:"keyword"`
	TemporalCoverage string `gorm:"type:text;not null;default:''" json:"temporal_coverage"`
	DateRange        string `gorm:"type:text;not null;default:''" json:"date_range"`
	SpatialCoverage  string `gorm:"type:text;not null;default:''" json:"spatial_coverage"`
	MemberOf         string `gorm:"type:text;not null;default:''" json:"member_of"`
	IsPartOf         string `gorm:"type:text;not null;default:''" json:"is_part_of"`
	Source           string `gorm:"type:text;not null;default:''" json:"source"`
	IsVersionOf      string `gorm:"type:text;not null;default:''" json:"is_version_of"`
	Replaces         string `gorm:"type:text;not null;default:''" json:"replaces"`
	IsReplacedBy     string `gorm:"type:text;not null;default:''" json:"is_replaced_by"`
	Relation         string `gorm:"type:text;not null;default:''" json:"relation"`
	Rights           string `gorm:"type:text;not null;default:''" json:"rights"`
	RightsHolder     string `gorm:"type:text;not null;default:''" json:"rights_holder"`
	License          string `gorm:"type:text;not null;default:''" json:"license"`

	// Envelope bounds derived from bbox; nil when bbox is absent or
	// unparsable, which excludes the row from spatial predicates.
	BboxWest  *float64 `gorm:"type:real" json:"bbox_west,omitempty"`
	BboxEast  *float64 `gorm:"type:real" json:"bbox_east,omitempty"`
	BboxSouth *float64 `gorm:"type:real" json:"bbox_south,omitempty"`
	BboxNorth *float64 `gorm:"type:real" json:"bbox_north,omitempty"`

	Embedding datatypes.JSON `gorm:"type:json" json:"embedding,omitempty"`
	Extra     datatypes.JSON `gorm:"type:json" json:"extra,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Resource) TableName() string { return "resources" }

// FlatValue returns the flat column holding the named schema field.
func (r *Resource) FlatValue(name string) (string, bool) {
	p := r.flatColumn(name)
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetFlat writes the flat column holding the named schema field. Unknown
// names are ignored; callers route those to the extra bag.
func (r *Resource) SetFlat(name, value string) bool {
	p := r.flatColumn(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func (r *Resource) flatColumn(name string) *string {
	switch name {
	case FieldID:
		return &r.ID
	case FieldTitle:
		return &r.Title
	case FieldAccessRights:
		return &r.AccessRights
	case FieldMetadataVersion:
		return &r.MetadataVersion
	case FieldFormat:
		return &r.Format
	case FieldProvider:
		return &r.Provider
	case FieldIssued:
		return &r.Issued
	case FieldBbox:
		return &r.Bbox
	case FieldFileSize:
		return &r.FileSize
	case FieldSuppressed:
		return &r.Suppressed
	case FieldGeoreferenced:
		return &r.Georeferenced
	case FieldYear:
		return &r.Year
	case "alternative_title":
		return &r.AlternativeTitle
	case "description":
		return &r.Description
	case "language":
		return &r.Language
	case "display_note":
		return &r.DisplayNote
	case "creator":
		return &r.Creator
	case "publisher":
		return &r.Publisher
	case FieldResourceClass:
		return &r.ResourceClass
	case "resource_type":
		return &r.ResourceType
	case "subject":
		return &r.Subject
	case "theme":
		return &r.Theme
	case "keyword":
		return &r.Keyword
	case "temporal_coverage":
		return &r.TemporalCoverage
	case "date_range":
		return &r.DateRange
	case "spatial_coverage":
		return &r.SpatialCoverage
	case "member_of":
		return &r.MemberOf
	case "is_part_of":
		return &r.IsPartOf
	case "source":
		return &r.Source
	case "is_version_of":
		return &r.IsVersionOf
	case "replaces":
		return &r.Replaces
	case "is_replaced_by":
		return &r.IsReplacedBy
	case "relation":
		return &r.Relation
	case "rights":
		return &r.Rights
	case "rights_holder":
		return &r.RightsHolder
	case "license":
		return &r.License
	default:
		return nil
	}
}
