// Package suggestion provides storage operations for link suggestions.
package suggestion

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/db/models"
)

const (
	pairQueryPattern = "external_identity_id = ? AND member_id = ?"
)

var (
	// ErrSuggestionNotFound is returned when a suggestion does not exist.
	ErrSuggestionNotFound = errors.New("link suggestion not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Upsert creates or refreshes a suggestion keyed by (identity, member).
// A pending row gets its confidence, method, details and expiry refreshed;
// a row already in a terminal state is returned untouched.
func Upsert(db *gorm.DB, row *models.LinkSuggestion) (*models.LinkSuggestion, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var existing models.LinkSuggestion
	result := db.Where(pairQueryPattern, row.ExternalIdentityID, row.MemberID).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if row.PublicID == "" {
			row.PublicID = uuid.NewString()
		}
		if row.Status == "" {
			row.Status = models.SuggestionPending
		}

		if err := db.Create(row).Error; err != nil {
			return nil, err
		}

		return row, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	if existing.Terminal() {
		return &existing, nil
	}

	existing.MatchMethod = row.MatchMethod
	existing.Confidence = row.Confidence
	existing.Details = row.Details
	existing.ExpiresAt = row.ExpiresAt

	if err := db.Save(&existing).Error; err != nil {
		return nil, err
	}

	return &existing, nil
}

// GetByPublicID retrieves a suggestion by its public identifier.
func GetByPublicID(db *gorm.DB, publicID string) (*models.LinkSuggestion, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var row models.LinkSuggestion
	result := db.Where("public_id = ?", publicID).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSuggestionNotFound
		}
		return nil, result.Error
	}

	return &row, nil
}

// Save persists a mutated suggestion row.
func Save(db *gorm.DB, row *models.LinkSuggestion) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Save(row).Error
}

// PendingForIdentity lists the pending suggestions of one identity.
func PendingForIdentity(db *gorm.DB, identityID uint64) ([]models.LinkSuggestion, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []models.LinkSuggestion
	result := db.
		Where("external_identity_id = ? AND status = ?", identityID, models.SuggestionPending).
		Order("confidence DESC, member_id").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// PendingForMember lists pending suggestions proposing the given member.
func PendingForMember(db *gorm.DB, memberID uint64) ([]models.LinkSuggestion, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []models.LinkSuggestion
	result := db.
		Where("member_id = ? AND status = ?", memberID, models.SuggestionPending).
		Order("confidence DESC, id").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// PendingForOrg returns one page of an organization's pending suggestions
// plus the total count. Pages are 1-based.
func PendingForOrg(db *gorm.DB, orgID uint64, page, pageSize int) ([]models.LinkSuggestion, int64, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	base := db.Model(&models.LinkSuggestion{}).
		Joins("JOIN external_identities ON external_identities.id = link_suggestions.external_identity_id").
		Where("external_identities.organization_id = ? AND link_suggestions.status = ?", orgID, models.SuggestionPending)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.LinkSuggestion
	result := base.
		Order("link_suggestions.confidence DESC, link_suggestions.id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return rows, total, nil
}

// DueForExpiry lists pending suggestions whose expiry has passed.
func DueForExpiry(db *gorm.DB, now time.Time) ([]models.LinkSuggestion, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []models.LinkSuggestion
	result := db.
		Where("status = ? AND expires_at <= ?", models.SuggestionPending, now).
		Order("id").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// MarkExpired bulk-transitions the given pending suggestions to expired
// and returns the number of rows affected.
func MarkExpired(db *gorm.DB, ids []uint64, now time.Time) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	if len(ids) == 0 {
		return 0, nil
	}

	result := db.Model(&models.LinkSuggestion{}).
		Where("id IN ? AND status = ?", ids, models.SuggestionPending).
		Updates(map[string]any{
			"status":      models.SuggestionExpired,
			"reviewed_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
