// Package audit provides append-only storage for the link audit log.
// Entries are never updated; the only destructive operation is the
// retention purge.
package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrActorEmpty is returned when an entry carries no acting principal.
	ErrActorEmpty = errors.New("audit actor cannot be empty")
)

// Append writes one audit entry. The public identifier and timestamp are
// assigned here if unset.
func Append(db *gorm.DB, entry *models.LinkAudit) error {
	if db == nil {
		return ErrDBNil
	}
	if entry.Actor == "" {
		return ErrActorEmpty
	}

	if entry.PublicID == "" {
		entry.PublicID = uuid.NewString()
	}

	return db.Create(entry).Error
}

// ForIdentity lists the audit trail of one identity, oldest first.
func ForIdentity(db *gorm.DB, identityID uint64) ([]models.LinkAudit, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []models.LinkAudit
	result := db.
		Where("external_identity_id = ?", identityID).
		Order("id").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// CountForIdentity returns the number of audit entries for an identity.
func CountForIdentity(db *gorm.DB, identityID uint64) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64
	result := db.Model(&models.LinkAudit{}).
		Where("external_identity_id = ?", identityID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

// PurgeOlderThan deletes entries created before the cutoff and returns the
// number of rows removed. Used by the configurable retention window.
func PurgeOlderThan(db *gorm.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	result := db.Where("created_at < ?", cutoff).Delete(&models.LinkAudit{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
