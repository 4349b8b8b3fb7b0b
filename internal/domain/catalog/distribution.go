package catalog

import (
	"github.com/google/uuid"
)

// Distribution is a named link owned by a record: a download URL, a service
// endpoint, a metadata document. Deleted with its record.
type Distribution struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ResourceID  string    `gorm:"type:text;not null" json:"resource_id"`
	RelationKey string    `gorm:"type:text;not null" json:"relation_key"`
	URL         string    `gorm:"type:text;not null;default:''" json:"url"`
	Label       string    `gorm:"type:text;not null;default:''" json:"label"`
}

func (Distribution) TableName() string { return "distributions" }
