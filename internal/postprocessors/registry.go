package postprocessors

import (
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Config holds processor settings keyed by option name, as decoded from
// the config file.
type Config map[string]any

// Int reads an integer option. TOML and JSON decoders hand back int64 or
// float64, so both are accepted.
func (c Config) Int(key string) (int, bool) {
	switch v := c[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Factory builds a processor from its options.
type Factory func(cfg Config) (driven.PostProcessor, error)

// Registry resolves processor names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register binds name to factory, replacing any earlier binding.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Build runs the factory registered under name.
func (r *Registry) Build(name string, cfg Config) (driven.PostProcessor, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: no processor named %q", domain.ErrInvalidConfiguration, name)
	}
	return factory(cfg)
}

func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names lists registered processors in lexical order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.factories))
}
