package models

import "time"

// Member represents an internal user account within an organization.
// Members are the link targets for external identities. Account ownership
// is managed by the surrounding system; this engine only reads members and
// records links against them.
type Member struct {
	// ID is the unique identifier for the member.
	ID uint64 `gorm:"primaryKey"`
	// OrganizationID scopes the member to a tenant.
	OrganizationID uint64 `gorm:"not null;uniqueIndex:idx_members_org_email,priority:1"`
	// Organization is the owning tenant (cascade delete).
	Organization Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
	// Email is the member's primary email, unique per organization.
	// Lookups against it are case-insensitive.
	Email string `gorm:"size:255;not null;uniqueIndex:idx_members_org_email,priority:2"`
	// DisplayName is the name shown in the directory and used for matching.
	DisplayName string `gorm:"size:255"`
	// Active indicates whether the account can be a link target.
	Active bool
	// CreatedAt is the timestamp when the member was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the member was last updated (managed by GORM).
	UpdatedAt time.Time
}
