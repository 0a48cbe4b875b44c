// Package gworkspace normalizes Google Workspace directory user payloads.
package gworkspace

import (
	"github.com/pkg/errors"

	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/provider"
)

// Normalizer maps Admin SDK Directory user payloads onto the canonical
// profile.
type Normalizer struct{}

// New returns a Google Workspace profile normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Provider returns the provider identifier.
func (*Normalizer) Provider() models.Provider {
	return models.ProviderGoogleWorkspace
}

// Normalize implements provider.Normalizer.
func (*Normalizer) Normalize(payload map[string]any) (*provider.Profile, error) {
	id := provider.StringField(payload, "id")
	if id == "" {
		return nil, errors.Wrap(provider.ErrMalformedPayload, "directory payload misses id")
	}

	name := provider.MapField(payload, "name")

	p := &provider.Profile{
		Provider:       models.ProviderGoogleWorkspace,
		ProviderUserID: id,
		ProviderTeamID: provider.StringField(payload, "customerId"),
		Email:          provider.StringField(payload, "primaryEmail"),
		DisplayName:    provider.StringField(name, "fullName"),
		RealName:       provider.StringField(name, "fullName"),
		AvatarURL:      provider.StringField(payload, "thumbnailPhotoUrl"),
		Metadata: models.JSONMap{
			"org_unit_path": provider.StringField(payload, "orgUnitPath"),
		},
	}

	return p, nil
}
