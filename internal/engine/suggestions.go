package engine

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/candidate"
	"github.com/identilink/identilink/internal/db/controller/audit"
	"github.com/identilink/identilink/internal/db/controller/identity"
	"github.com/identilink/identilink/internal/db/controller/suggestion"
	"github.com/identilink/identilink/internal/db/models"
)

// createSuggestions raises up to maxSuggestionsPerIdentity suggestions for
// the highest-confidence candidates, marks the identity suggested and
// writes one audit entry summarizing the batch. All inside one transaction.
func (s *Service) createSuggestions(_ context.Context, db *gorm.DB, row *models.ExternalIdentity, settings models.IdentitySettings, candidates []candidate.Candidate, actor string) ([]SuggestedCandidate, error) {
	if len(candidates) > maxSuggestionsPerIdentity {
		candidates = candidates[:maxSuggestionsPerIdentity]
	}

	expiresAt := s.now().Add(settings.SuggestionTTL())
	created := make([]SuggestedCandidate, 0, len(candidates))

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, c := range candidates {
			method := models.LinkMethodAutoFuzzy
			confidence := roundConfidence(c.Confidence)

			details := models.JSONMap{
				"match_method": string(c.Match.Method),
				"match_score":  formatConfidence(c.Match.Score),
			}
			if c.DomainBoosted {
				details["domain_boosted"] = "true"
			}

			stored, err := suggestion.Upsert(tx, &models.LinkSuggestion{
				ExternalIdentityID: row.ID,
				MemberID:           c.Member.ID,
				MatchMethod:        method,
				Confidence:         confidence,
				Details:            details,
				Status:             models.SuggestionPending,
				ExpiresAt:          expiresAt,
			})
			if err != nil {
				return err
			}

			// a terminal row stays untouched and is not re-raised
			if stored.Terminal() {
				continue
			}

			created = append(created, SuggestedCandidate{
				SuggestionID: stored.PublicID,
				MemberID:     c.Member.ID,
				Confidence:   confidence,
				Method:       method,
			})
		}

		if len(created) == 0 {
			return nil
		}

		row.LinkStatus = models.LinkStatusSuggested
		if err := identity.Save(tx, row); err != nil {
			return err
		}

		return audit.Append(tx, &models.LinkAudit{
			OrganizationID:     row.OrganizationID,
			ExternalIdentityID: row.ID,
			Action:             models.AuditSuggestionCreated,
			Actor:              actor,
			Metadata: models.JSONMap{
				"count":          strconv.Itoa(len(created)),
				"top_confidence": formatConfidence(created[0].Confidence),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Decide resolves a pending suggestion. On accept the identity is linked
// to the suggested member with the manual method, which also marks the
// suggestion accepted. On reject only this suggestion transitions.
func (s *Service) Decide(ctx context.Context, suggestionID string, accepted bool, reviewer, reason string) error {
	db := s.db.WithContext(ctx)

	row, err := suggestion.GetByPublicID(db, suggestionID)
	if err != nil {
		return err
	}

	if row.Terminal() {
		return ErrSuggestionNotPending
	}

	if reviewer == "" {
		reviewer = SystemActor
	}

	if accepted {
		return s.Link(ctx, row.ExternalIdentityID, row.MemberID, models.LinkMethodManual, reviewer, reason)
	}

	identityRow, err := identity.GetByID(db, row.ExternalIdentityID)
	if err != nil {
		return err
	}

	now := s.now()

	return db.Transaction(func(tx *gorm.DB) error {
		row.Status = models.SuggestionRejected
		row.ReviewedBy = &reviewer
		row.ReviewedAt = &now
		if reason != "" {
			row.RejectReason = &reason
		}

		if err := suggestion.Save(tx, row); err != nil {
			return err
		}

		// no pending suggestions left: the identity is plain unlinked again
		remaining, err := suggestion.PendingForIdentity(tx, identityRow.ID)
		if err != nil {
			return err
		}

		if len(remaining) == 0 && identityRow.LinkStatus == models.LinkStatusSuggested {
			identityRow.LinkStatus = models.LinkStatusUnlinked
			if err := identity.Save(tx, identityRow); err != nil {
				return err
			}
		}

		confidence := row.Confidence

		return audit.Append(tx, &models.LinkAudit{
			OrganizationID:     identityRow.OrganizationID,
			ExternalIdentityID: identityRow.ID,
			Action:             models.AuditRejected,
			PrevMemberID:       nil,
			NewMemberID:        &row.MemberID,
			Method:             &row.MatchMethod,
			Confidence:         &confidence,
			Actor:              reviewer,
			Reason:             reason,
		})
	})
}

// ExpireDueSuggestions bulk-transitions all pending suggestions whose
// expiry has passed and returns the count affected. Identities left in the
// suggested status with nothing pending revert to unlinked. Intended to
// run on a periodic schedule.
func (s *Service) ExpireDueSuggestions(ctx context.Context, now time.Time) (int64, error) {
	db := s.db.WithContext(ctx)

	var affected int64

	err := db.Transaction(func(tx *gorm.DB) error {
		due, err := suggestion.DueForExpiry(tx, now)
		if err != nil {
			return err
		}

		if len(due) == 0 {
			return nil
		}

		ids := make([]uint64, 0, len(due))
		perIdentity := make(map[uint64]int)

		for _, row := range due {
			ids = append(ids, row.ID)
			perIdentity[row.ExternalIdentityID]++
		}

		affected, err = suggestion.MarkExpired(tx, ids, now)
		if err != nil {
			return err
		}

		for identityID, count := range perIdentity {
			identityRow, err := identity.GetByID(tx, identityID)
			if err != nil {
				return err
			}

			if err := audit.Append(tx, &models.LinkAudit{
				OrganizationID:     identityRow.OrganizationID,
				ExternalIdentityID: identityID,
				Action:             models.AuditSuggestionExpired,
				Actor:              SystemActor,
				Metadata:           models.JSONMap{"count": strconv.Itoa(count)},
			}); err != nil {
				return err
			}

			remaining, err := suggestion.PendingForIdentity(tx, identityID)
			if err != nil {
				return err
			}

			if len(remaining) == 0 && identityRow.LinkStatus == models.LinkStatusSuggested {
				identityRow.LinkStatus = models.LinkStatusUnlinked
				if err := identity.Save(tx, identityRow); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	suggestionsExpiredTotal.Add(float64(affected))

	return affected, nil
}

// acceptPendingSuggestionsTx marks every pending suggestion of an identity
// accepted once a definitive owner exists.
func (s *Service) acceptPendingSuggestionsTx(tx *gorm.DB, identityID uint64, reviewer string, now time.Time) error {
	pending, err := suggestion.PendingForIdentity(tx, identityID)
	if err != nil {
		return err
	}

	for i := range pending {
		row := &pending[i]
		row.Status = models.SuggestionAccepted
		row.ReviewedBy = &reviewer
		row.ReviewedAt = &now

		if err := suggestion.Save(tx, row); err != nil {
			return err
		}
	}

	return nil
}
