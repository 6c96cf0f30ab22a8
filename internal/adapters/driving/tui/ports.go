package tui

import (
	"errors"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var (
	ErrInvalidPorts         = errors.New("tui: invalid ports configuration")
	ErrMissingQueryService  = errors.New("tui: query service is required")
	ErrMissingSourceService = errors.New("tui: source service is required")
)

// Ports are the core services the screens call. Index may be nil, in
// which case the source detail screen cannot index.
type Ports struct {
	Query  driving.QueryService
	Source driving.SourceService
	Index  driving.IndexService
}

func NewPorts(query driving.QueryService, source driving.SourceService, index driving.IndexService) *Ports {
	return &Ports{Query: query, Source: source, Index: index}
}

// Validate checks that the required services are present.
func (p *Ports) Validate() error {
	switch {
	case p == nil:
		return ErrInvalidPorts
	case p.Query == nil:
		return ErrMissingQueryService
	case p.Source == nil:
		return ErrMissingSourceService
	}
	return nil
}
