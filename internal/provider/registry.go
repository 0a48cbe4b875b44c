package provider

// defaultRegistry is assembled by Default at first use.
var defaultRegistry *Registry //nolint:gochecknoglobals

// RegisterDefaults installs the given normalizers as the process-wide
// default registry. Called once from the daemon with the built-in adapters;
// split from Default to keep this package free of adapter imports.
func RegisterDefaults(list ...Normalizer) *Registry {
	defaultRegistry = NewRegistry(list...)
	return defaultRegistry
}

// Default returns the process-wide registry, which is empty until
// RegisterDefaults ran.
func Default() *Registry {
	if defaultRegistry == nil {
		defaultRegistry = NewRegistry()
	}

	return defaultRegistry
}
