package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultSourceType labels sources ingested without an explicit type.
const DefaultSourceType = "website"

// IngestService extracts pages and stores them as a source with pages,
// media and unembedded chunks.
type IngestService struct {
	sources  driven.SourceStore
	registry driven.NormaliserRegistry
	pipeline driven.PostProcessorPipeline
	now      func() time.Time
}

// NewIngestService creates an ingest service.
func NewIngestService(
	sources driven.SourceStore,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
) *IngestService {
	return &IngestService{
		sources:  sources,
		registry: registry,
		pipeline: pipeline,
		now:      time.Now,
	}
}

// extracted pairs a raw page with its normaliser output.
type extracted struct {
	raw  domain.RawPage
	page *domain.ExtractedPage
}

// Ingest normalises and chunks every page, then stores the source with its
// pages, media (deduped by URL) and chunks in one Replace. Nothing is
// stored when any page fails. A keyed request reuses the ID and creation
// time of the source stored under the same key.
func (s *IngestService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	logger.Section("Ingest")
	if len(req.Pages) == 0 {
		return nil, fmt.Errorf("%w: ingest request has no pages", domain.ErrInvalidParameter)
	}

	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = req.Pages[0].URL
	}
	logger.Debug("Base URL: %q, pages: %d, key: %q", baseURL, len(req.Pages), req.Key)

	pages := make([]extracted, 0, len(req.Pages))
	for _, raw := range req.Pages {
		if raw.URL == "" {
			raw.URL = baseURL
		}
		out, err := s.registry.Normalise(ctx, &raw)
		if err != nil {
			return nil, fmt.Errorf("normalise %s: %w", pageName(raw), err)
		}
		pages = append(pages, extracted{raw: raw, page: out})
	}

	now := s.now()
	source := domain.Source{
		ID:            uuid.New().String(),
		Type:          req.Type,
		BaseURL:       baseURL,
		Title:         pages[0].page.Title,
		PageContent:   pages[0].page.Markdown,
		InternalLinks: internalLinks(baseURL, pages),
		PageCount:     len(pages),
		Key:           req.Key,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if source.Type == "" {
		source.Type = DefaultSourceType
	}

	previous, err := s.sources.FindByKey(ctx, req.Key)
	switch {
	case err == nil:
		source.ID, source.CreatedAt = previous.ID, previous.CreatedAt
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find source by key: %w", err)
	}

	content := domain.SourceContent{
		Source: source,
		Pages:  make([]domain.Page, 0, len(pages)),
		Media:  collectMedia(source.ID, pages),
	}
	for _, p := range pages {
		content.Pages = append(content.Pages, domain.Page{
			ID:        uuid.New().String(),
			SourceID:  source.ID,
			URL:       p.raw.URL,
			Content:   p.page.Text,
			CreatedAt: now,
		})
	}
	for i := range content.Pages {
		pageChunks, err := s.pipeline.Process(ctx, &content.Pages[i])
		if err != nil {
			return nil, fmt.Errorf("chunk page %s: %w", content.Pages[i].URL, err)
		}
		for _, c := range pageChunks {
			c.Position = len(content.Chunks)
			content.Chunks = append(content.Chunks, c)
		}
	}

	stale, err := s.sources.Replace(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("store source: %w", err)
	}

	result := &domain.IngestResult{Source: source, Replaced: previous != nil, StaleChunkIDs: stale}
	if result.Replaced {
		logger.Info("Replaced source %s (%s): %d pages, %d media, %d chunks, %d stale",
			source.ID, source.Key, len(content.Pages), len(content.Media), len(content.Chunks), len(stale))
	} else {
		logger.Info("Ingested source %s: %d pages, %d media, %d chunks",
			source.ID, len(content.Pages), len(content.Media), len(content.Chunks))
	}
	return result, nil
}

// internalLinks returns the links of every page that stay on baseURL's
// host, in discovery order without duplicates.
func internalLinks(baseURL string, pages []extracted) []string {
	seen := make(map[string]struct{})
	var links []string
	for _, p := range pages {
		for _, link := range p.page.Links {
			if !domain.SameHost(baseURL, link) {
				continue
			}
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}
	return links
}

// collectMedia assigns IDs to the media of every page, keeping the first
// occurrence of each URL.
func collectMedia(sourceID string, pages []extracted) []domain.Media {
	seen := make(map[string]struct{})
	var media []domain.Media
	for _, p := range pages {
		for _, m := range p.page.Media {
			if _, dup := seen[m.URL]; dup {
				continue
			}
			seen[m.URL] = struct{}{}
			m.ID = uuid.New().String()
			m.SourceID = sourceID
			if m.PageURL == "" {
				m.PageURL = p.raw.URL
			}
			media = append(media, m)
		}
	}
	return media
}

func pageName(raw domain.RawPage) string {
	if raw.Filename != "" {
		return raw.Filename
	}
	return raw.URL
}
