package driving

import "github.com/custodia-labs/resumatch/internal/core/domain"

// SettingsService reads engine and backend settings from configuration.
type SettingsService interface {
	// Engine returns the tuning settings, falling back to defaults per key.
	Engine() domain.EngineSettings

	// Backends returns the adapter selection and connection settings.
	Backends() domain.BackendSettings

	// Set stores a single configuration value after validating the result.
	Set(key string, value any) error
}

// SettingsAware is implemented by services whose tuning can be replaced at runtime.
type SettingsAware interface {
	SetSettings(settings domain.EngineSettings)
}
