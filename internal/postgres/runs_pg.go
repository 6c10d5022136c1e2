package postgres

import (
	"fmt"

	"geoenrich/internal/model"

	"gorm.io/gorm"
)

// SaveRun stores the summary of an enrichment run
func SaveRun(db *gorm.DB, run *model.EnrichmentRunPG) error {
	if result := db.Create(run); result.Error != nil {
		return fmt.Errorf("failed to save enrichment run %s: %w", run.ID, result.Error)
	}
	return nil
}

// RecentRuns returns the latest enrichment runs, newest first
func RecentRuns(db *gorm.DB, limit int) ([]model.EnrichmentRunPG, error) {
	var runs []model.EnrichmentRunPG
	result := db.Order("started_at DESC").Limit(limit).Find(&runs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load enrichment runs: %w", result.Error)
	}
	return runs, nil
}
