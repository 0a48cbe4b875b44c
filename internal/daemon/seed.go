package daemon

import (
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/config"
	"github.com/identilink/identilink/internal/db/models"
)

// seed creates a development organization with a few members so resolve
// calls have something to match against. Dev mode only.
func seed(cfg *config.Config, db *gorm.DB) {
	if !cfg.DevMode {
		return
	}

	var count int64
	db.Model(&models.Organization{}).Count(&count)

	if count != 0 {
		return
	}

	org := models.Organization{Name: "dev", Active: true}
	db.Create(&org)

	db.Create(&[]models.Member{
		{OrganizationID: org.ID, Email: "john.smith@example.com", DisplayName: "John Smith", Active: true},
		{OrganizationID: org.ID, Email: "maria.gonzalez@example.com", DisplayName: "Maria Gonzalez", Active: true},
		{OrganizationID: org.ID, Email: "wei.chen@example.com", DisplayName: "Wei Chen", Active: true},
	})
}
