package engine

import (
	"errors"

	"github.com/identilink/identilink/internal/db/controller/identity"
	"github.com/identilink/identilink/internal/db/controller/suggestion"
	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/provider"
)

var (
	// ErrMemberNotFound is returned when the target member does not exist
	// in the identity's organization.
	ErrMemberNotFound = errors.New("member not found in organization")

	// ErrNotLinked is returned when unlinking an identity without a link.
	ErrNotLinked = errors.New("external identity is not linked")

	// ErrAlreadyLinked is returned when linking an identity that already
	// has a member. Use Relink to correct a misattribution.
	ErrAlreadyLinked = errors.New("external identity is already linked")

	// ErrSuggestionNotPending is returned when deciding on a suggestion
	// in a terminal state.
	ErrSuggestionNotPending = errors.New("suggestion is not pending")

	// ErrReasonRequired is returned when a relink carries no reason.
	ErrReasonRequired = errors.New("a non-empty reason is required")

	// ErrIdentityNotFound aliases the storage sentinel for callers.
	ErrIdentityNotFound = identity.ErrIdentityNotFound

	// ErrSuggestionNotFound aliases the storage sentinel for callers.
	ErrSuggestionNotFound = suggestion.ErrSuggestionNotFound
)

// ErrKind classifies engine errors so API callers can map them to
// transport-level status codes without string matching.
type ErrKind int

const (
	// KindUnknown covers storage and other unexpected failures.
	KindUnknown ErrKind = iota
	// KindNotFound: identity, suggestion or member does not exist.
	KindNotFound
	// KindInvalidState: the operation does not apply to the current state.
	KindInvalidState
	// KindValidation: the input was rejected.
	KindValidation
	// KindConfiguration: organization settings are inconsistent.
	KindConfiguration
)

// Kind returns the error kind of err.
func Kind(err error) ErrKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, identity.ErrIdentityNotFound),
		errors.Is(err, suggestion.ErrSuggestionNotFound),
		errors.Is(err, ErrMemberNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotLinked),
		errors.Is(err, ErrAlreadyLinked),
		errors.Is(err, ErrSuggestionNotPending):
		return KindInvalidState
	case errors.Is(err, ErrReasonRequired),
		errors.Is(err, provider.ErrMalformedPayload),
		errors.Is(err, provider.ErrUnknownProvider):
		return KindValidation
	case errors.Is(err, models.ErrThresholdOrder):
		return KindConfiguration
	default:
		return KindUnknown
	}
}
