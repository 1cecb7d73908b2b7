package driving

import "github.com/custodia-labs/sage-cli/internal/core/domain"

// SettingsService reads and writes application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then file, then environment.
	Get() (*domain.AppSettings, error)

	// Set validates and persists a single key.
	Set(key, value string) error

	// Keys lists the recognised setting keys.
	Keys() []string

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error
}
