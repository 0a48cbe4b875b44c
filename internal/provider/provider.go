// Package provider normalizes provider-specific identity payloads into the
// canonical profile consumed by the resolution engine. Adapters return
// identity facts only and make no linking decisions.
package provider

import (
	"github.com/pkg/errors"

	"github.com/identilink/identilink/internal/db/models"
)

var (
	// ErrUnknownProvider is returned for a provider with no registered normalizer.
	ErrUnknownProvider = errors.New("unknown identity provider")
	// ErrMalformedPayload is returned when a payload misses mandatory fields.
	ErrMalformedPayload = errors.New("malformed provider payload")
)

// Profile is the canonical, provider-independent identity record.
type Profile struct {
	Provider       models.Provider
	ProviderUserID string
	ProviderTeamID string
	Email          string
	DisplayName    string
	RealName       string
	AvatarURL      string
	Metadata       models.JSONMap
}

// Validate checks the mandatory profile fields.
func (p *Profile) Validate() error {
	if p == nil || p.Provider == "" || p.ProviderUserID == "" {
		return ErrMalformedPayload
	}

	return nil
}

// Normalizer converts one provider's raw identity payload into a Profile.
type Normalizer interface {
	// Provider returns the provider this normalizer handles.
	Provider() models.Provider

	// Normalize maps a raw provider payload onto the canonical profile.
	Normalize(payload map[string]any) (*Profile, error)
}

// Registry holds all configured profile normalizers and allows lookup by
// provider. It performs no resolution logic itself.
type Registry struct {
	normalizers map[models.Provider]Normalizer
}

// NewRegistry registers the given normalizers by provider.
func NewRegistry(list ...Normalizer) *Registry {
	m := make(map[models.Provider]Normalizer)
	for _, n := range list {
		m[n.Provider()] = n
	}

	return &Registry{normalizers: m}
}

// Get returns the normalizer for a provider or ErrUnknownProvider.
func (r *Registry) Get(p models.Provider) (Normalizer, error) {
	n, ok := r.normalizers[p]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProvider, "%s", p)
	}

	return n, nil
}

// StringField reads a string value from a payload map, returning "" when
// the key is absent or not a string. Shared by the adapters.
func StringField(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}

	s, ok := v.(string)
	if !ok {
		return ""
	}

	return s
}

// MapField reads a nested object from a payload map.
func MapField(payload map[string]any, key string) map[string]any {
	v, ok := payload[key]
	if !ok {
		return nil
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	return m
}
