package models

import (
	"errors"
	"time"
)

// Identity settings defaults.
const (
	DefaultAutoLinkThreshold   = 0.95
	DefaultSuggestionThreshold = 0.85
	DefaultSuggestionTTLDays   = 30
)

// ErrThresholdOrder is returned when the suggestion threshold is configured
// above the auto-link threshold. Rejected at settings-write time.
var ErrThresholdOrder = errors.New("suggestion threshold must not exceed auto-link threshold")

// IdentitySettings holds the per-organization resolution policy knobs.
// The row is owned by the surrounding configuration service; this engine
// reads it and applies defaults when it is absent.
type IdentitySettings struct {
	ID uint64 `gorm:"primaryKey"`

	OrganizationID uint64       `gorm:"not null;uniqueIndex"`
	Organization   Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`

	// EmailAutoLink enables automatic linking on an exact email match.
	EmailAutoLink bool `gorm:"not null;default:true"`

	// AutoLinkThreshold is the minimum confidence for automatic fuzzy links.
	AutoLinkThreshold float64 `gorm:"type:decimal(3,2);not null;default:0.95"`

	// SuggestionThreshold is the minimum confidence for raising a
	// suggestion. Must not exceed AutoLinkThreshold.
	SuggestionThreshold float64 `gorm:"type:decimal(3,2);not null;default:0.85"`

	// SuggestionTTLDays is the expiry window for pending suggestions.
	SuggestionTTLDays int `gorm:"not null;default:30"`

	// AllowSelfLink and AllowSelfUnlink are the self-service toggles.
	AllowSelfLink   bool `gorm:"not null;default:true"`
	AllowSelfUnlink bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultIdentitySettings returns the settings applied when an organization
// has no stored row.
func DefaultIdentitySettings(orgID uint64) IdentitySettings {
	return IdentitySettings{
		OrganizationID:      orgID,
		EmailAutoLink:       true,
		AutoLinkThreshold:   DefaultAutoLinkThreshold,
		SuggestionThreshold: DefaultSuggestionThreshold,
		SuggestionTTLDays:   DefaultSuggestionTTLDays,
		AllowSelfLink:       true,
		AllowSelfUnlink:     true,
	}
}

// Validate enforces the threshold ordering invariant.
func (s *IdentitySettings) Validate() error {
	if s.SuggestionThreshold > s.AutoLinkThreshold {
		return ErrThresholdOrder
	}

	return nil
}

// SuggestionTTL returns the expiry window as a duration.
func (s *IdentitySettings) SuggestionTTL() time.Duration {
	days := s.SuggestionTTLDays
	if days <= 0 {
		days = DefaultSuggestionTTLDays
	}

	return time.Duration(days) * 24 * time.Hour
}

// TableName specifies the database table name for the IdentitySettings model.
func (IdentitySettings) TableName() string {
	return "identity_settings"
}
