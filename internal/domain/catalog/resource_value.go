package catalog

import (
	"github.com/google/uuid"
)

// ResourceValue is one element of a repeated field: the EAV mirror used by
// facet counting and set-membership predicates. Pos preserves the element
// order of the source array; without it the engine gives no stable row order.
type ResourceValue struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ResourceID string    `gorm:"type:text;not null" json:"resource_id"`
	FieldName  string    `gorm:"type:text;not null" json:"field_name"`
	Value      string    `gorm:"type:text;not null" json:"value"`
	Pos        int       `gorm:"not null;default:0" json:"pos"`
}

func (ResourceValue) TableName() string { return "resources_mv" }
