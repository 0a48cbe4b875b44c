package engine

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/db/controller/audit"
	"github.com/identilink/identilink/internal/db/controller/identity"
	"github.com/identilink/identilink/internal/db/models"
)

// Link associates an external identity with a member. Linking a
// never-before-seen identity fails with a not-found error; linking on top
// of an existing link fails with an invalid-state error (use Relink).
// Manual, admin and migration links carry confidence 1.0. Any pending
// suggestions of the identity resolve to accepted, since the identity now
// has a definitive owner.
func (s *Service) Link(ctx context.Context, externalIdentityID, memberID uint64, method models.LinkMethod, actor, reason string) error {
	db := s.db.WithContext(ctx)

	row, err := identity.GetByID(db, externalIdentityID)
	if err != nil {
		return err
	}

	if row.LinkStatus == models.LinkStatusLinked {
		return ErrAlreadyLinked
	}

	if actor == "" {
		actor = SystemActor
	}

	if method == "" {
		method = models.LinkMethodManual
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return s.linkTx(tx, row, memberID, method, 1.0, actor, reason)
	})
}

// Unlink removes the member association of a linked identity. Unlinking an
// already-unlinked identity fails with an invalid-state error.
func (s *Service) Unlink(ctx context.Context, externalIdentityID uint64, actor, reason string) error {
	db := s.db.WithContext(ctx)

	row, err := identity.GetByID(db, externalIdentityID)
	if err != nil {
		return err
	}

	if row.LinkStatus != models.LinkStatusLinked {
		return ErrNotLinked
	}

	if actor == "" {
		actor = SystemActor
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return s.unlinkTx(tx, row, actor, reason, nil)
	})
}

// Relink corrects a misattribution: unlink-then-link as one logical
// audited operation, always tagged with the admin method at confidence 1.0.
// The reason is mandatory and the operation must never be silently skipped,
// so a missing reason fails before any state change.
func (s *Service) Relink(ctx context.Context, externalIdentityID, newMemberID uint64, actor, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}

	db := s.db.WithContext(ctx)

	row, err := identity.GetByID(db, externalIdentityID)
	if err != nil {
		return err
	}

	if actor == "" {
		actor = SystemActor
	}

	relinkMeta := models.JSONMap{"relink": "true"}

	return db.Transaction(func(tx *gorm.DB) error {
		if row.LinkStatus == models.LinkStatusLinked {
			if err := s.unlinkTx(tx, row, actor, reason, relinkMeta); err != nil {
				return err
			}
		}

		return s.linkTx(tx, row, newMemberID, models.LinkMethodAdmin, 1.0, actor, reason)
	})
}

// linkTx performs the link mutation, accepts the identity's pending
// suggestions and appends the audit entry. Runs inside a transaction.
func (s *Service) linkTx(tx *gorm.DB, row *models.ExternalIdentity, memberID uint64, method models.LinkMethod, confidence float64, actor, reason string) error {
	var member models.Member

	err := tx.Where("organization_id = ? AND id = ?", row.OrganizationID, memberID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	prevMemberID := row.MemberID
	now := s.now()
	confidence = roundConfidence(confidence)

	row.MemberID = &member.ID
	row.LinkStatus = models.LinkStatusLinked
	row.LinkMethod = &method
	row.LinkConfidence = &confidence
	row.LinkedAt = &now
	row.LinkedBy = &actor

	if err := identity.Save(tx, row); err != nil {
		return err
	}

	if err := s.acceptPendingSuggestionsTx(tx, row.ID, actor, now); err != nil {
		return err
	}

	return audit.Append(tx, &models.LinkAudit{
		OrganizationID:     row.OrganizationID,
		ExternalIdentityID: row.ID,
		Action:             models.AuditLinked,
		PrevMemberID:       prevMemberID,
		NewMemberID:        &member.ID,
		Method:             &method,
		Confidence:         &confidence,
		Actor:              actor,
		Reason:             reason,
	})
}

// unlinkTx clears the link and appends the audit entry. Runs inside a
// transaction.
func (s *Service) unlinkTx(tx *gorm.DB, row *models.ExternalIdentity, actor, reason string, meta models.JSONMap) error {
	prevMemberID := row.MemberID
	prevMethod := row.LinkMethod

	row.MemberID = nil
	row.LinkStatus = models.LinkStatusUnlinked
	row.LinkMethod = nil
	row.LinkConfidence = nil
	row.LinkedAt = nil
	row.LinkedBy = nil

	if err := identity.Save(tx, row); err != nil {
		return err
	}

	return audit.Append(tx, &models.LinkAudit{
		OrganizationID:     row.OrganizationID,
		ExternalIdentityID: row.ID,
		Action:             models.AuditUnlinked,
		PrevMemberID:       prevMemberID,
		Method:             prevMethod,
		Actor:              actor,
		Reason:             reason,
		Metadata:           meta,
	})
}
