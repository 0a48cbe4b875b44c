package models

import "time"

// Provider identifies the external collaboration system that reported
// an identity.
type Provider string

const (
	// ProviderSlack is the Slack messaging platform.
	ProviderSlack Provider = "slack"
	// ProviderMSTeams is the Microsoft Teams platform.
	ProviderMSTeams Provider = "msteams"
	// ProviderGoogleWorkspace is the Google Workspace directory.
	ProviderGoogleWorkspace Provider = "gworkspace"
)

// LinkStatus represents the linking state of an external identity.
type LinkStatus string

const (
	// LinkStatusUnlinked means no internal member is associated yet.
	LinkStatusUnlinked LinkStatus = "unlinked"
	// LinkStatusLinked means the identity is tied to exactly one member.
	LinkStatusLinked LinkStatus = "linked"
	// LinkStatusSuggested means candidate links await human review.
	LinkStatusSuggested LinkStatus = "suggested"
)

// LinkMethod records how a link (or suggestion) was established.
type LinkMethod string

const (
	// LinkMethodAutoEmail is an automatic link on an exact email match.
	LinkMethodAutoEmail LinkMethod = "auto_email"
	// LinkMethodAutoFuzzy is an automatic link on a fuzzy name match.
	LinkMethodAutoFuzzy LinkMethod = "auto_fuzzy"
	// LinkMethodManual is a link confirmed by the member or a reviewer.
	LinkMethodManual LinkMethod = "manual"
	// LinkMethodAdmin is an administrative link or relink.
	LinkMethodAdmin LinkMethod = "admin"
	// LinkMethodMigration is a link imported from a previous system.
	LinkMethodMigration LinkMethod = "migration"
)

// ExternalIdentity represents one provider-scoped user record, unique per
// (organization, provider, provider user id). It is created on first
// sighting, refreshed on every re-sync and never hard-deleted except by
// cascading organization deletion.
//
// Invariant: LinkStatus == LinkStatusLinked exactly when MemberID is non-nil.
// Use CheckLinkInvariant before persisting link-state changes.
type ExternalIdentity struct {
	ID uint64 `gorm:"primaryKey"`

	OrganizationID uint64       `gorm:"not null;uniqueIndex:idx_identities_org_provider_uid,priority:1"`
	Organization   Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`

	Provider       Provider `gorm:"type:varchar(20);not null;uniqueIndex:idx_identities_org_provider_uid,priority:2"`
	ProviderUserID string   `gorm:"size:255;not null;uniqueIndex:idx_identities_org_provider_uid,priority:3"`
	ProviderTeamID string   `gorm:"size:255"`

	// MemberID is the linked internal member, nil until linked.
	MemberID *uint64
	Member   *Member `gorm:"foreignKey:MemberID;constraint:OnDelete:SET NULL"`

	// Profile snapshot, refreshed on every sync.
	Email       string `gorm:"size:255"`
	DisplayName string `gorm:"size:255"`
	RealName    string `gorm:"size:255"`
	AvatarURL   string `gorm:"size:1024"`
	Metadata    JSONMap

	LinkStatus     LinkStatus  `gorm:"type:varchar(20);not null;default:'unlinked'"`
	LinkMethod     *LinkMethod `gorm:"type:varchar(20)"`
	LinkConfidence *float64    `gorm:"type:decimal(3,2)"`
	LinkedAt       *time.Time
	LinkedBy       *string `gorm:"size:255"`

	LastSyncAt time.Time
	SyncError  string `gorm:"size:1024"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CheckLinkInvariant reports whether the link-status/member pairing is
// consistent. Any violating row is a data-integrity defect and must be
// rejected, never silently tolerated.
func (e *ExternalIdentity) CheckLinkInvariant() bool {
	if e.LinkStatus == LinkStatusLinked {
		return e.MemberID != nil
	}

	return e.MemberID == nil
}

// TableName specifies the database table name for the ExternalIdentity model.
func (ExternalIdentity) TableName() string {
	return "external_identities"
}
