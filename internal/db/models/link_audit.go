package models

import "time"

// AuditAction enumerates the state-changing actions recorded in the audit log.
type AuditAction string

const (
	// AuditLinked records that an identity was linked to a member.
	AuditLinked AuditAction = "linked"
	// AuditUnlinked records that an identity lost its member link.
	AuditUnlinked AuditAction = "unlinked"
	// AuditRejected records a rejected suggestion.
	AuditRejected AuditAction = "rejected"
	// AuditSuggestionCreated records a batch of created suggestions.
	AuditSuggestionCreated AuditAction = "suggestion_created"
	// AuditSuggestionExpired records suggestions lapsing by expiry.
	AuditSuggestionExpired AuditAction = "suggestion_expired"
)

// LinkAudit is one append-only log entry per state-changing action on an
// external identity. Entries are never mutated or deleted, except by the
// retention purge.
type LinkAudit struct {
	ID uint64 `gorm:"primaryKey"`

	// PublicID is the identifier exposed to API callers.
	PublicID string `gorm:"size:36;not null;uniqueIndex"`

	OrganizationID uint64       `gorm:"not null;index"`
	Organization   Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`

	ExternalIdentityID uint64      `gorm:"not null;index"`
	Action             AuditAction `gorm:"type:varchar(30);not null"`

	// PrevMemberID and NewMemberID capture the member reference before and
	// after the action, where applicable.
	PrevMemberID *uint64
	NewMemberID  *uint64

	Method     *LinkMethod `gorm:"type:varchar(20)"`
	Confidence *float64    `gorm:"type:decimal(3,2)"`

	// Actor is the acting principal: a member identifier or "system".
	Actor    string `gorm:"size:255;not null"`
	Reason   string `gorm:"size:1024"`
	Metadata JSONMap

	CreatedAt time.Time `gorm:"index"`
}

// TableName specifies the database table name for the LinkAudit model.
func (LinkAudit) TableName() string {
	return "link_audits"
}
