package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/db/controller/audit"
	"github.com/identilink/identilink/internal/db/controller/identity"
	"github.com/identilink/identilink/internal/db/controller/suggestion"
	"github.com/identilink/identilink/internal/db/models"
)

// suggestedScenario resolves a near-match so the identity ends up in the
// suggested status with exactly one pending suggestion.
func suggestedScenario(t *testing.T, svc *Service, db *gorm.DB) (orgID, identityID, memberID uint64, suggestionID string) {
	t.Helper()

	org := seedOrg(t, db, "acme")
	member := seedMember(t, db, org.ID, "John Smith", "john.smith@acme.com")

	res, err := svc.ResolveIdentity(context.Background(), slackProfile("U1", "John Smyth", ""), org.ID, "")
	require.NoError(t, err)
	require.Equal(t, ActionSuggested, res.Action)
	require.Len(t, res.Suggestions, 1)

	return org.ID, res.ExternalIdentityID, member.ID, res.Suggestions[0].SuggestionID
}

func TestDecideAccept(t *testing.T) {
	db := setupTestDB(t)
	svc := New(db)
	_, identityID, memberID, suggestionID := suggestedScenario(t, svc, db)

	require.NoError(t, svc.Decide(context.Background(), suggestionID, true, "reviewer-1", "looks right"))

	row, err := identity.GetByID(db, identityID)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusLinked, row.LinkStatus)
	require.NotNil(t, row.MemberID)
	assert.Equal(t, memberID, *row.MemberID)
	require.NotNil(t, row.LinkMethod)
	assert.Equal(t, models.LinkMethodManual, *row.LinkMethod)

	stored, err := suggestion.GetByPublicID(db, suggestionID)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionAccepted, stored.Status)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, "reviewer-1", *stored.ReviewedBy)
	assert.NotNil(t, stored.ReviewedAt)

	// deciding a terminal suggestion again is rejected
	err = svc.Decide(context.Background(), suggestionID, false, "reviewer-2", "")
	require.ErrorIs(t, err, ErrSuggestionNotPending)
	assert.Equal(t, KindInvalidState, Kind(err))
}

func TestDecideReject(t *testing.T) {
	db := setupTestDB(t)
	svc := New(db)
	_, identityID, _, suggestionID := suggestedScenario(t, svc, db)

	require.NoError(t, svc.Decide(context.Background(), suggestionID, false, "reviewer-1", "different person"))

	stored, err := suggestion.GetByPublicID(db, suggestionID)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionRejected, stored.Status)
	require.NotNil(t, stored.RejectReason)
	assert.Equal(t, "different person", *stored.RejectReason)

	// the only pending suggestion is gone: identity reverts to unlinked
	row, err := identity.GetByID(db, identityID)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusUnlinked, row.LinkStatus)
	assert.Nil(t, row.MemberID)

	entries, err := audit.ForIdentity(db, identityID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditSuggestionCreated, entries[0].Action)
	assert.Equal(t, models.AuditRejected, entries[1].Action)
}

func TestDecideUnknownSuggestion(t *testing.T) {
	db := setupTestDB(t)
	svc := New(db)

	err := svc.Decide(context.Background(), "no-such-id", true, "reviewer-1", "")
	require.ErrorIs(t, err, ErrSuggestionNotFound)
	assert.Equal(t, KindNotFound, Kind(err))
}

func TestRejectedSuggestionIsNotReraised(t *testing.T) {
	db := setupTestDB(t)
	svc := New(db)
	orgID, identityID, _, suggestionID := suggestedScenario(t, svc, db)

	require.NoError(t, svc.Decide(context.Background(), suggestionID, false, "reviewer-1", "different person"))

	// the same profile sighted again must not re-raise the rejected pair
	res, err := svc.ResolveIdentity(context.Background(), slackProfile("U1", "John Smyth", ""), orgID, "")
	require.NoError(t, err)
	assert.Equal(t, identityID, res.ExternalIdentityID)
	assert.Equal(t, ActionNoMatch, res.Action)

	stored, err := suggestion.GetByPublicID(db, suggestionID)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionRejected, stored.Status)
}

func TestLinkAcceptsPendingSuggestions(t *testing.T) {
	db := setupTestDB(t)
	svc := New(db)
	_, identityID, memberID, suggestionID := suggestedScenario(t, svc, db)

	// a direct link supersedes the open review
	require.NoError(t, svc.Link(context.Background(), identityID, memberID, models.LinkMethodManual, "admin-1", ""))

	stored, err := suggestion.GetByPublicID(db, suggestionID)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionAccepted, stored.Status)
}

func TestExpireDueSuggestions(t *testing.T) {
	db := setupTestDB(t)

	start := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc := New(db, WithClock(func() time.Time { return start }))

	_, identityID, _, suggestionID := suggestedScenario(t, svc, db)

	// well before the 30 day default expiry nothing is due
	count, err := svc.ExpireDueSuggestions(context.Background(), start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = svc.ExpireDueSuggestions(context.Background(), start.Add(31*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	stored, err := suggestion.GetByPublicID(db, suggestionID)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionExpired, stored.Status)
	assert.NotNil(t, stored.ReviewedAt)

	row, err := identity.GetByID(db, identityID)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusUnlinked, row.LinkStatus)

	entries, err := audit.ForIdentity(db, identityID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditSuggestionExpired, entries[1].Action)
	assert.Equal(t, SystemActor, entries[1].Actor)

	// the sweep is idempotent
	count, err = svc.ExpireDueSuggestions(context.Background(), start.Add(32*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}
