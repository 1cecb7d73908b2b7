package driven

// ConfigStore is a flat view of persisted configuration keyed by dotted
// names such as "llm.model". Typed getters return the zero value when a key
// is missing or cannot be converted; Get tells the two apart.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64

	// Set stores value and persists it before returning.
	Set(key string, value any) error
}
