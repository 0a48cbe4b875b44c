package models

import "time"

// SuggestionStatus represents the lifecycle state of a link suggestion.
type SuggestionStatus string

const (
	// SuggestionPending awaits a reviewer decision or expiry.
	SuggestionPending SuggestionStatus = "pending"
	// SuggestionAccepted was confirmed and produced a link. Terminal.
	SuggestionAccepted SuggestionStatus = "accepted"
	// SuggestionRejected was declined by a reviewer. Terminal.
	SuggestionRejected SuggestionStatus = "rejected"
	// SuggestionExpired lapsed without a decision. Terminal.
	SuggestionExpired SuggestionStatus = "expired"
)

// LinkSuggestion is a candidate match between an external identity and a
// member, awaiting confirmation. Unique per (identity, member); terminal
// states are immutable.
type LinkSuggestion struct {
	ID uint64 `gorm:"primaryKey"`

	// PublicID is the identifier exposed to API callers.
	PublicID string `gorm:"size:36;not null;uniqueIndex"`

	ExternalIdentityID uint64           `gorm:"not null;uniqueIndex:idx_suggestions_identity_member,priority:1"`
	ExternalIdentity   ExternalIdentity `gorm:"foreignKey:ExternalIdentityID;constraint:OnDelete:CASCADE"`

	MemberID uint64 `gorm:"not null;uniqueIndex:idx_suggestions_identity_member,priority:2"`
	Member   Member `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE"`

	MatchMethod LinkMethod `gorm:"type:varchar(20);not null"`
	Confidence  float64    `gorm:"type:decimal(3,2);not null"`
	Details     JSONMap

	Status       SuggestionStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	ReviewedBy   *string          `gorm:"size:255"`
	ReviewedAt   *time.Time
	RejectReason *string `gorm:"size:1024"`

	ExpiresAt time.Time `gorm:"not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the suggestion reached an immutable state.
func (s *LinkSuggestion) Terminal() bool {
	return s.Status != SuggestionPending
}

// TableName specifies the database table name for the LinkSuggestion model.
func (LinkSuggestion) TableName() string {
	return "link_suggestions"
}
