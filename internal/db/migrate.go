package db

import (
	"fmt"

	"github.com/quorumforge/bountyboard/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model the schema migration covers.
func AllModels() []interface{} {
	return []interface{}{
		&models.Board{},
		&models.Tier{},
		&models.Role{},
		&models.ContributorRecord{},
		&models.ContributorSkillPt{},
		&models.Bounty{},
		&models.BountyApplication{},
		&models.BountySubmission{},
		&models.BountyActivity{},
		&models.TokenAccount{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
