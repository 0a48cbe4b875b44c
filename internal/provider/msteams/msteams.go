// Package msteams normalizes Microsoft Teams (Graph API) user payloads.
package msteams

import (
	"github.com/pkg/errors"

	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/provider"
)

// Normalizer maps Microsoft Graph user payloads onto the canonical profile.
type Normalizer struct{}

// New returns a Microsoft Teams profile normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Provider returns the provider identifier.
func (*Normalizer) Provider() models.Provider {
	return models.ProviderMSTeams
}

// Normalize implements provider.Normalizer.
func (*Normalizer) Normalize(payload map[string]any) (*provider.Profile, error) {
	id := provider.StringField(payload, "id")
	if id == "" {
		return nil, errors.Wrap(provider.ErrMalformedPayload, "graph payload misses id")
	}

	// `mail` can be unset for accounts without a mailbox; the UPN is
	// usually an address for organization accounts.
	email := provider.StringField(payload, "mail")
	if email == "" {
		email = provider.StringField(payload, "userPrincipalName")
	}

	p := &provider.Profile{
		Provider:       models.ProviderMSTeams,
		ProviderUserID: id,
		ProviderTeamID: provider.StringField(payload, "tenantId"),
		Email:          email,
		DisplayName:    provider.StringField(payload, "displayName"),
		RealName:       provider.StringField(payload, "displayName"),
		Metadata: models.JSONMap{
			"user_principal_name": provider.StringField(payload, "userPrincipalName"),
		},
	}

	return p, nil
}
