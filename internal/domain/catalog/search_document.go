package catalog

// SearchDocument carries the concatenated searchable text of one record,
// regenerated on every upsert.
type SearchDocument struct {
	ResourceID string `gorm:"type:text;primaryKey" json:"resource_id"`
	Text       string `gorm:"type:text;not null;default:''" json:"text"`
}

func (SearchDocument) TableName() string { return "search_documents" }
