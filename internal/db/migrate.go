package db

import (
	"fmt"

	"github.com/zulandar/worktrack/internal/config"
	"github.com/zulandar/worktrack/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.WorkPlanJob{},
		&models.JobAssignment{},
		&models.JobTracking{},
		&models.PauseRequest{},
		&models.DailyReview{},
		&models.JobRating{},
		&models.CarryOver{},
		&models.SiteConfig{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedConfig writes or updates the SiteConfig row for this site.
func SeedConfig(db *gorm.DB, cfg *config.Config) error {
	sc := models.SiteConfig{
		Site:     cfg.Site,
		Timezone: cfg.Timezone,
		Settings: "{}",
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "site"}},
		DoUpdates: clause.AssignmentColumns([]string{"timezone"}),
	}).Create(&sc)
	if result.Error != nil {
		return fmt.Errorf("db: seed config for %q: %w", cfg.Site, result.Error)
	}
	return nil
}
