// Package engine implements the external identity resolution and linking
// policy: the multi-stage matching cascade, the confidence-threshold
// decision between automatic linking, suggestion and no action, the
// link/unlink/relink state machine and the suggestion lifecycle. Every
// state-changing operation commits its identity update, suggestion updates
// and audit entry in one transaction.
package engine

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/candidate"
	"github.com/identilink/identilink/internal/db/controller/identity"
	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/provider"
)

// SystemActor is recorded when no human principal triggered an operation.
const SystemActor = "system"

// emailAutoLinkConfidence is the fixed confidence of an exact email match.
const emailAutoLinkConfidence = 0.98

// maxSuggestionsPerIdentity caps how many suggestions one resolution may raise.
const maxSuggestionsPerIdentity = 5

// Action is the outcome of a resolution.
type Action string

const (
	// ActionAlreadyLinked: the identity was linked before this sighting.
	ActionAlreadyLinked Action = "already_linked"
	// ActionAutoLinked: a confident match was linked automatically.
	ActionAutoLinked Action = "auto_linked"
	// ActionSuggested: ambiguous matches were raised for review.
	ActionSuggested Action = "suggested"
	// ActionNoMatch: no candidate reached the suggestion threshold.
	ActionNoMatch Action = "no_match"
)

// SuggestedCandidate is one raised suggestion in a resolution result.
type SuggestedCandidate struct {
	SuggestionID string
	MemberID     uint64
	Confidence   float64
	Method       models.LinkMethod
}

// Resolution is the result of ResolveIdentity.
type Resolution struct {
	Action             Action
	ExternalIdentityID uint64
	LinkedMemberID     *uint64
	Method             *models.LinkMethod
	Confidence         *float64
	Suggestions        []SuggestedCandidate
}

// Service is the resolution engine. Each public operation is one
// request-scoped unit of work; the service itself holds no mutable state
// beyond the settings cache.
type Service struct {
	db       *gorm.DB
	settings *settingsCache
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSettingsTTL overrides the settings cache TTL.
func WithSettingsTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.settings = newSettingsCache(s.db, ttl)
	}
}

// New creates a resolution engine on top of the given database.
func New(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:       db,
		settings: newSettingsCache(db, defaultSettingsTTL),
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ResolveIdentity upserts the sighted identity and decides between
// automatic linking, suggestion and no action. Repeated sightings of an
// already linked identity short-circuit to ActionAlreadyLinked, which makes
// the operation idempotent.
func (s *Service) ResolveIdentity(ctx context.Context, profile *provider.Profile, orgID uint64, actor string) (*Resolution, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	if actor == "" {
		actor = SystemActor
	}

	settings, err := s.settings.get(ctx, orgID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	// step 1: create on first sighting, refresh profile fields otherwise
	row, err := identity.Upsert(db, &models.ExternalIdentity{
		OrganizationID: orgID,
		Provider:       profile.Provider,
		ProviderUserID: profile.ProviderUserID,
		ProviderTeamID: profile.ProviderTeamID,
		Email:          profile.Email,
		DisplayName:    profile.DisplayName,
		RealName:       profile.RealName,
		AvatarURL:      profile.AvatarURL,
		Metadata:       profile.Metadata,
		LinkStatus:     models.LinkStatusUnlinked,
		LastSyncAt:     s.now(),
	})
	if err != nil {
		return nil, err
	}

	// step 2: repeated sighting of a linked identity
	if row.LinkStatus == models.LinkStatusLinked {
		resolutionsTotal.WithLabelValues(string(ActionAlreadyLinked)).Inc()

		return &Resolution{
			Action:             ActionAlreadyLinked,
			ExternalIdentityID: row.ID,
			LinkedMemberID:     row.MemberID,
			Method:             row.LinkMethod,
			Confidence:         row.LinkConfidence,
		}, nil
	}

	// step 3: exact email auto-link
	if profile.Email != "" && settings.EmailAutoLink {
		member, err := s.exactEmailMember(db, orgID, profile.Email)
		if err != nil {
			return nil, err
		}

		if member != nil {
			confidence := emailAutoLinkConfidence

			err = db.Transaction(func(tx *gorm.DB) error {
				return s.linkTx(tx, row, member.ID, models.LinkMethodAutoEmail, confidence, actor, "exact email match")
			})
			if err != nil {
				return nil, err
			}

			resolutionsTotal.WithLabelValues(string(ActionAutoLinked)).Inc()
			method := models.LinkMethodAutoEmail

			return &Resolution{
				Action:             ActionAutoLinked,
				ExternalIdentityID: row.ID,
				LinkedMemberID:     &member.ID,
				Method:             &method,
				Confidence:         &confidence,
			}, nil
		}
	}

	// steps 4-5: rank all members and partition by the thresholds
	members, err := s.activeMembers(db, orgID)
	if err != nil {
		return nil, err
	}

	// providers do not always fill the display name, fall back to the
	// real name for matching
	matchName := profile.DisplayName
	if matchName == "" {
		matchName = profile.RealName
	}

	candidates := candidate.Find(members, matchName, profile.Email)

	var autoEligible, suggestionEligible []candidate.Candidate

	for _, c := range candidates {
		switch {
		case c.Confidence >= settings.AutoLinkThreshold:
			autoEligible = append(autoEligible, c)
		case c.Confidence >= settings.SuggestionThreshold:
			suggestionEligible = append(suggestionEligible, c)
		}
	}

	// step 6: exactly one confident candidate links automatically.
	// Multiple confident candidates are ambiguous: blind tie-breaking on
	// confidence alone risks linking the wrong person.
	if len(autoEligible) == 1 {
		winner := autoEligible[0]
		confidence := roundConfidence(winner.Confidence)

		err = db.Transaction(func(tx *gorm.DB) error {
			return s.linkTx(tx, row, winner.Member.ID, models.LinkMethodAutoFuzzy, confidence, actor, "fuzzy name match")
		})
		if err != nil {
			return nil, err
		}

		resolutionsTotal.WithLabelValues(string(ActionAutoLinked)).Inc()
		method := models.LinkMethodAutoFuzzy

		return &Resolution{
			Action:             ActionAutoLinked,
			ExternalIdentityID: row.ID,
			LinkedMemberID:     &winner.Member.ID,
			Method:             &method,
			Confidence:         &confidence,
		}, nil
	}

	// step 7: raise suggestions for review. Pairs already decided stay
	// decided; when nothing new was raised the sighting falls through to
	// no_match.
	reviewable := append(autoEligible, suggestionEligible...) //nolint:gocritic
	if len(reviewable) > 0 {
		suggestions, err := s.createSuggestions(ctx, db, row, settings, reviewable, actor)
		if err != nil {
			return nil, err
		}

		if len(suggestions) > 0 {
			resolutionsTotal.WithLabelValues(string(ActionSuggested)).Inc()

			return &Resolution{
				Action:             ActionSuggested,
				ExternalIdentityID: row.ID,
				Suggestions:        suggestions,
			}, nil
		}
	}

	// step 8: nothing matched, the identity stays unlinked
	resolutionsTotal.WithLabelValues(string(ActionNoMatch)).Inc()
	log.Debug().
		Uint64("org", orgID).
		Str("provider", string(profile.Provider)).
		Str("provider_user_id", profile.ProviderUserID).
		Msg("no link candidate reached the suggestion threshold")

	return &Resolution{
		Action:             ActionNoMatch,
		ExternalIdentityID: row.ID,
	}, nil
}

// exactEmailMember returns the single active member with the given email,
// or nil when there is no unambiguous owner of the address.
func (s *Service) exactEmailMember(db *gorm.DB, orgID uint64, email string) (*models.Member, error) {
	var members []models.Member

	err := db.
		Where("organization_id = ? AND active = ? AND LOWER(email) = ?", orgID, true, strings.ToLower(email)).
		Limit(2).
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	if len(members) != 1 {
		return nil, nil //nolint:nilnil
	}

	return &members[0], nil
}

func (s *Service) activeMembers(db *gorm.DB, orgID uint64) ([]models.Member, error) {
	var members []models.Member

	err := db.
		Where("organization_id = ? AND active = ?", orgID, true).
		Order("id").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	return members, nil
}

// roundConfidence clamps a confidence score to the stored 2-decimal
// fixed-point representation.
func roundConfidence(c float64) float64 {
	return math.Round(c*100) / 100
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 2, 64)
}
