package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Source represents one ingested site or document set.
// Pages, media and chunks reference it by ID.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Type is a free-form label supplied at ingest (e.g. "website", "docs").
	Type string

	// BaseURL is the root URL the pages were captured from.
	BaseURL string

	// Title is the title of the first page.
	Title string

	// PageContent is the markdown rendering of the first page.
	PageContent string

	// InternalLinks are links that stay on the base URL's host.
	InternalLinks []string

	// PageCount is the number of pages ingested.
	PageCount int

	// Key names a source that a later ingest replaces, such as a watched
	// file. Empty for one-off ingests.
	Key string

	// CreatedAt is when the source was created.
	CreatedAt time.Time

	// UpdatedAt is when the source was last updated.
	UpdatedAt time.Time
}

// DisplayName returns the title, falling back to the base URL and then the ID.
func (s *Source) DisplayName() string {
	switch {
	case s.Title != "":
		return s.Title
	case s.BaseURL != "":
		return s.BaseURL
	default:
		return s.ID
	}
}

// SourceContent is a source with everything stored under it. Stores write
// it as one unit.
type SourceContent struct {
	Source Source
	Pages  []Page
	Media  []Media
	Chunks []Chunk
}

// Validate checks that every page, media link and chunk belongs to Source.
func (c *SourceContent) Validate() error {
	id := c.Source.ID
	if id == "" {
		return fmt.Errorf("%w: source has no ID", ErrInvalidParameter)
	}
	for _, p := range c.Pages {
		if p.SourceID != id {
			return fmt.Errorf("%w: page %s belongs to source %q, not %s", ErrInvalidParameter, p.ID, p.SourceID, id)
		}
	}
	for _, m := range c.Media {
		if m.SourceID != id {
			return fmt.Errorf("%w: media %s belongs to source %q, not %s", ErrInvalidParameter, m.ID, m.SourceID, id)
		}
	}
	for _, ch := range c.Chunks {
		if ch.SourceID != id {
			return fmt.Errorf("%w: chunk %s belongs to source %q, not %s", ErrInvalidParameter, ch.ID, ch.SourceID, id)
		}
	}
	return nil
}

// StaleChunkIDs returns the IDs in previous that c no longer has.
func (c *SourceContent) StaleChunkIDs(previous []string) []string {
	keep := make(map[string]struct{}, len(c.Chunks))
	for _, ch := range c.Chunks {
		keep[ch.ID] = struct{}{}
	}
	stale := []string{}
	for _, id := range previous {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}

// Page holds the extracted text of a single ingested page.
type Page struct {
	ID       string
	SourceID string

	// URL is the page's own address (the internal link it was reached by).
	URL string

	// Content is the extracted plain text.
	Content string

	CreatedAt time.Time
}

// MediaType classifies a media link found on a page.
type MediaType string

// Recognised media types.
const (
	MediaImage  MediaType = "image"
	MediaPDF    MediaType = "pdf"
	MediaSocial MediaType = "social"
)

// IsValid returns true if the media type is recognised.
func (m MediaType) IsValid() bool {
	switch m {
	case MediaImage, MediaPDF, MediaSocial:
		return true
	default:
		return false
	}
}

// Media is an asset link discovered during extraction.
type Media struct {
	ID       string
	SourceID string

	// PageURL is the page the link was found on.
	PageURL string

	// URL is the absolute asset URL.
	URL string

	Type MediaType

	// MetaInfo carries extra detail such as alt text or the social network name.
	MetaInfo string
}

// SocialDomains are the hosts whose links are classified as social media.
var SocialDomains = []string{
	"facebook.com",
	"twitter.com",
	"instagram.com",
	"linkedin.com",
	"youtube.com",
}

// SocialNetwork returns the social domain a URL belongs to, or "".
func SocialNetwork(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range SocialDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return d
		}
	}
	return ""
}

// SameHost reports whether link is on the same host as base.
func SameHost(base, link string) bool {
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return false
	}
	l, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(b.Hostname(), l.Hostname())
}
