package driven

// ConfigStore persists flat, dot-keyed settings such as "pipeline.top_k".
// Typed getters return the zero value for missing keys and for values of
// another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int

	// GetFloat also accepts integer values.
	GetFloat(key string) float64

	// Set stores value under key and writes the file.
	Set(key string, value any) error

	// Load re-reads the file, discarding unsaved state.
	Load() error

	Path() string
}
