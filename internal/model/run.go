package model

import (
	"time"
)

// EnrichmentRunPG model for PostgreSQL storage of enrichment run summaries
type EnrichmentRunPG struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Collection   string    `gorm:"size:255;not null" json:"collection"`
	Polygons     int       `gorm:"not null" json:"polygons"`
	ImportErrors int       `gorm:"not null" json:"import_errors"`
	Processed    int64     `gorm:"not null" json:"processed"`
	Resolved     int64     `gorm:"not null" json:"resolved"`
	Unresolved   int64     `gorm:"not null" json:"unresolved"`
	Failed       int64     `gorm:"not null" json:"failed"`
	StartedAt    time.Time `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt   time.Time `gorm:"column:finished_at;not null" json:"finished_at"`

	CreatedAt time.Time `gorm:"column:created_at" json:"-"`
}

// TableName overrides the table name
func (EnrichmentRunPG) TableName() string {
	return "enrichment_runs"
}
