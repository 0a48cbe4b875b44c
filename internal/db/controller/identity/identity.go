// Package identity provides storage operations for external identities.
package identity

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/identilink/identilink/internal/db/models"
)

const (
	tripleQueryPattern = "organization_id = ? AND provider = ? AND provider_user_id = ?"
	orgStatusPattern   = "organization_id = ? AND link_status = ?"
)

var (
	// ErrIdentityNotFound is returned when an external identity does not exist.
	ErrIdentityNotFound = errors.New("external identity not found")
	// ErrInvariantViolation is returned when a write would break the
	// linked-status/member pairing invariant.
	ErrInvariantViolation = errors.New("link status and member reference are inconsistent")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Upsert creates the identity on first sighting or refreshes the mutable
// profile fields of the existing row, without touching link state. The
// uniqueness constraint on (organization, provider, provider user id) makes
// concurrent upserts of the same identity race-safe; the loser observes the
// winner's row. Returns the stored row.
func Upsert(db *gorm.DB, row *models.ExternalIdentity) (*models.ExternalIdentity, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if row.LastSyncAt.IsZero() {
		row.LastSyncAt = time.Now().UTC()
	}

	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "organization_id"}, {Name: "provider"}, {Name: "provider_user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_team_id", "email", "display_name", "real_name",
			"avatar_url", "metadata", "last_sync_at", "sync_error", "updated_at",
		}),
	}).Create(row)
	if result.Error != nil {
		return nil, result.Error
	}

	return GetByProviderUID(db, row.OrganizationID, row.Provider, row.ProviderUserID)
}

// GetByID retrieves an identity by its primary key.
func GetByID(db *gorm.DB, id uint64) (*models.ExternalIdentity, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var row models.ExternalIdentity
	result := db.First(&row, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, result.Error
	}

	return &row, nil
}

// GetByProviderUID retrieves an identity by its unique triple.
func GetByProviderUID(db *gorm.DB, orgID uint64, provider models.Provider, providerUserID string) (*models.ExternalIdentity, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var row models.ExternalIdentity
	result := db.Where(tripleQueryPattern, orgID, provider, providerUserID).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, result.Error
	}

	return &row, nil
}

// Save persists link-state mutations after checking the invariant.
func Save(db *gorm.DB, row *models.ExternalIdentity) error {
	if db == nil {
		return ErrDBNil
	}

	if !row.CheckLinkInvariant() {
		return ErrInvariantViolation
	}

	return db.Save(row).Error
}

// ForMember lists the identities linked to a member.
func ForMember(db *gorm.DB, orgID, memberID uint64) ([]models.ExternalIdentity, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []models.ExternalIdentity
	result := db.
		Where("organization_id = ? AND member_id = ?", orgID, memberID).
		Order("id").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// ListByStatus returns one page of an organization's identities in the
// given link status plus the total count. Pages are 1-based.
func ListByStatus(db *gorm.DB, orgID uint64, status models.LinkStatus, page, pageSize int) ([]models.ExternalIdentity, int64, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	var total int64
	if err := db.Model(&models.ExternalIdentity{}).
		Where(orgStatusPattern, orgID, status).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ExternalIdentity
	result := db.
		Where(orgStatusPattern, orgID, status).
		Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return rows, total, nil
}
