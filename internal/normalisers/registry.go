package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// extensionTypes covers the formats ingest accepts. mime.TypeByExtension
// is consulted for anything else.
var extensionTypes = map[string]string{
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
}

// Registry dispatches pages to the highest priority normaliser for their MIME type.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Strings(types)
	return types
}

// Normalise extracts a page with the best matching normaliser.
// An empty MIME type is inferred from the file name, then the URL.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawPage) (*domain.ExtractedPage, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil page", domain.ErrInvalidParameter)
	}

	mimeType := raw.MIMEType
	if mimeType == "" {
		mimeType = DetectMIMEType(raw.Filename)
	}
	if mimeType == "" {
		mimeType = DetectMIMEType(raw.URL)
	}

	n := r.find(mimeType)
	if n == nil {
		return nil, fmt.Errorf("%w: no normaliser for MIME type %q", domain.ErrInvalidParameter, mimeType)
	}

	page := *raw
	page.MIMEType = mimeType
	return n.Normalise(ctx, &page)
}

func (r *Registry) find(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if t == mimeType || t == "*/*" {
				return n
			}
		}
	}
	return nil
}

// DetectMIMEType maps a file name or URL path to a MIME type.
// Parameters such as "; charset=utf-8" are dropped. Unknown extensions yield "".
func DetectMIMEType(name string) string {
	if name == "" {
		return ""
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return ""
}
