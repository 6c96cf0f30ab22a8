package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

const (
	uriScheme    = "sercha-rag://"
	sourcesURI   = uriScheme + "sources"
	jsonMIMEType = "application/json"
)

type sourceInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	BaseURL   string `json:"base_url"`
	PageCount int    `json:"page_count"`
}

type chunkInfo struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Content  string `json:"content"`
	Embedded bool   `json:"embedded"`
}

type mediaInfo struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	MetaInfo string `json:"meta_info,omitempty"`
	PageURL  string `json:"page_url,omitempty"`
}

// registerResources exposes the source list plus per-source chunk and
// media templates under sercha-rag://sources.
func (s *Server) registerResources() {
	s.sdk.AddResource(&mcp.Resource{
		URI:         sourcesURI,
		Name:        "sources",
		Description: "List of all ingested sources",
		MIMEType:    jsonMIMEType,
	}, s.handleSourcesResource)

	s.sdk.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: sourcesURI + "/{sourceId}/chunks",
		Name:        "source-chunks",
		Description: "Chunks cut from a specific source, in position order",
		MIMEType:    jsonMIMEType,
	}, s.handleChunksResource)

	s.sdk.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: sourcesURI + "/{sourceId}/media",
		Name:        "source-media",
		Description: "Images, PDFs and social links found on a specific source",
		MIMEType:    jsonMIMEType,
	}, s.handleMediaResource)
}

// handleSourcesResource lists every source. Without a source service the
// list is empty rather than an error.
func (s *Server) handleSourcesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if s.ports.Source == nil {
		return jsonResult(req.Params.URI, []sourceInfo{})
	}
	sources, err := s.ports.Source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return jsonResult(req.Params.URI, mapSlice(sources, func(src domain.Source) sourceInfo {
		return sourceInfo{
			ID:        src.ID,
			Title:     src.Title,
			Type:      src.Type,
			BaseURL:   src.BaseURL,
			PageCount: src.PageCount,
		}
	}))
}

func (s *Server) handleChunksResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return readPerSource(ctx, s.ports.Source, req.Params.URI, "chunks", driving.SourceService.Chunks,
		func(c domain.Chunk) chunkInfo {
			return chunkInfo{ID: c.ID, Position: c.Position, Content: c.Content, Embedded: c.HasEmbedding()}
		})
}

func (s *Server) handleMediaResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return readPerSource(ctx, s.ports.Source, req.Params.URI, "media", driving.SourceService.Media,
		func(m domain.Media) mediaInfo {
			return mediaInfo{URL: m.URL, Type: string(m.Type), MetaInfo: m.MetaInfo, PageURL: m.PageURL}
		})
}

// readPerSource serves sercha-rag://sources/{id}/{leaf}. A malformed URI
// or an unknown source is reported as resource-not-found.
func readPerSource[T, V any](
	ctx context.Context,
	svc driving.SourceService,
	uri, leaf string,
	fetch func(driving.SourceService, context.Context, string) ([]T, error),
	view func(T) V,
) (*mcp.ReadResourceResult, error) {
	id := extractSourceID(uri, leaf)
	if svc == nil || id == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	items, err := fetch(svc, ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, mcp.ResourceNotFoundError(uri)
	case err != nil:
		return nil, fmt.Errorf("list %s of %s: %w", leaf, id, err)
	}
	return jsonResult(uri, mapSlice(items, view))
}

func mapSlice[T, V any](items []T, f func(T) V) []V {
	out := make([]V, len(items))
	for i, item := range items {
		out[i] = f(item)
	}
	return out
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode resource %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: jsonMIMEType, Text: string(data)}},
	}, nil
}

// extractSourceID returns {id} from sercha-rag://sources/{id}/{leaf}, or ""
// when uri has any other shape.
func extractSourceID(uri, leaf string) string {
	rest, ok := strings.CutPrefix(uri, sourcesURI+"/")
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, "/"+leaf)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
