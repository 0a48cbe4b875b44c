package engine

import (
	"context"

	"github.com/identilink/identilink/internal/db/controller/audit"
	"github.com/identilink/identilink/internal/db/controller/identity"
	"github.com/identilink/identilink/internal/db/controller/suggestion"
	"github.com/identilink/identilink/internal/db/models"
)

// IdentitiesForMember lists the external identities linked to a member.
func (s *Service) IdentitiesForMember(ctx context.Context, orgID, memberID uint64) ([]models.ExternalIdentity, error) {
	return identity.ForMember(s.db.WithContext(ctx), orgID, memberID)
}

// UnlinkedIdentities returns one page of an organization's unlinked
// identities plus the total count.
func (s *Service) UnlinkedIdentities(ctx context.Context, orgID uint64, page, pageSize int) ([]models.ExternalIdentity, int64, error) {
	return identity.ListByStatus(s.db.WithContext(ctx), orgID, models.LinkStatusUnlinked, page, pageSize)
}

// SuggestedIdentities returns one page of an organization's identities
// with open suggestions plus the total count.
func (s *Service) SuggestedIdentities(ctx context.Context, orgID uint64, page, pageSize int) ([]models.ExternalIdentity, int64, error) {
	return identity.ListByStatus(s.db.WithContext(ctx), orgID, models.LinkStatusSuggested, page, pageSize)
}

// LinkedIdentities returns one page of an organization's linked identities
// plus the total count.
func (s *Service) LinkedIdentities(ctx context.Context, orgID uint64, page, pageSize int) ([]models.ExternalIdentity, int64, error) {
	return identity.ListByStatus(s.db.WithContext(ctx), orgID, models.LinkStatusLinked, page, pageSize)
}

// PendingSuggestionsForMember lists pending suggestions proposing the member.
func (s *Service) PendingSuggestionsForMember(ctx context.Context, memberID uint64) ([]models.LinkSuggestion, error) {
	return suggestion.PendingForMember(s.db.WithContext(ctx), memberID)
}

// PendingSuggestionsForOrg returns one page of an organization's pending
// suggestions plus the total count.
func (s *Service) PendingSuggestionsForOrg(ctx context.Context, orgID uint64, page, pageSize int) ([]models.LinkSuggestion, int64, error) {
	return suggestion.PendingForOrg(s.db.WithContext(ctx), orgID, page, pageSize)
}

// AuditTrail lists the audit entries of one identity, oldest first.
func (s *Service) AuditTrail(ctx context.Context, externalIdentityID uint64) ([]models.LinkAudit, error) {
	db := s.db.WithContext(ctx)

	if _, err := identity.GetByID(db, externalIdentityID); err != nil {
		return nil, err
	}

	return audit.ForIdentity(db, externalIdentityID)
}
