// Package orgsettings reads the per-organization identity resolution
// settings. The rows are owned by the surrounding configuration service;
// this engine applies defaults when a row is absent and rejects rows
// violating the threshold ordering invariant.
package orgsettings

import (
	"errors"

	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves the settings of an organization, falling back to defaults
// when no row exists. A stored row with an inverted threshold ordering is
// rejected rather than silently tolerated.
func Get(db *gorm.DB, orgID uint64) (models.IdentitySettings, error) {
	if db == nil {
		return models.IdentitySettings{}, ErrDBNil
	}

	var settings models.IdentitySettings
	result := db.Where("organization_id = ?", orgID).First(&settings)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.DefaultIdentitySettings(orgID), nil
	}
	if result.Error != nil {
		return models.IdentitySettings{}, result.Error
	}

	if err := settings.Validate(); err != nil {
		return models.IdentitySettings{}, err
	}

	return settings, nil
}

// Put creates or updates an organization's settings row. Settings that
// violate the threshold ordering are rejected at write time.
func Put(db *gorm.DB, settings *models.IdentitySettings) error {
	if db == nil {
		return ErrDBNil
	}

	if err := settings.Validate(); err != nil {
		return err
	}

	var existing models.IdentitySettings
	result := db.Where("organization_id = ?", settings.OrganizationID).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return db.Create(settings).Error
	}
	if result.Error != nil {
		return result.Error
	}

	settings.ID = existing.ID
	settings.CreatedAt = existing.CreatedAt

	return db.Save(settings).Error
}
