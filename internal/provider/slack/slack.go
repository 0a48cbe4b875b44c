// Package slack normalizes Slack user payloads.
package slack

import (
	"github.com/pkg/errors"

	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/provider"
)

// Normalizer maps Slack `users.info` style payloads onto the canonical
// profile. Expected shape:
//
//	{"id": "U123", "team_id": "T123", "name": "jsmith",
//	 "profile": {"email": ..., "real_name": ..., "display_name": ..., "image_192": ...}}
type Normalizer struct{}

// New returns a Slack profile normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Provider returns the provider identifier.
func (*Normalizer) Provider() models.Provider {
	return models.ProviderSlack
}

// Normalize implements provider.Normalizer.
func (*Normalizer) Normalize(payload map[string]any) (*provider.Profile, error) {
	id := provider.StringField(payload, "id")
	if id == "" {
		return nil, errors.Wrap(provider.ErrMalformedPayload, "slack payload misses id")
	}

	userProfile := provider.MapField(payload, "profile")

	displayName := provider.StringField(userProfile, "display_name")
	if displayName == "" {
		displayName = provider.StringField(payload, "name")
	}

	p := &provider.Profile{
		Provider:       models.ProviderSlack,
		ProviderUserID: id,
		ProviderTeamID: provider.StringField(payload, "team_id"),
		Email:          provider.StringField(userProfile, "email"),
		DisplayName:    displayName,
		RealName:       provider.StringField(userProfile, "real_name"),
		AvatarURL:      provider.StringField(userProfile, "image_192"),
		Metadata: models.JSONMap{
			"slack_handle": provider.StringField(payload, "name"),
		},
	}

	return p, nil
}
