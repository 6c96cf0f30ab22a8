package normalisers

import (
	"net/url"
	"path"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ParseBase parses a page URL for link resolution. Relative or invalid
// URLs yield nil, in which case only absolute links survive ResolveLink.
func ParseBase(raw string) *url.URL {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return nil
	}
	return u
}

// ResolveLink makes ref absolute against base and keeps only http(s) URLs.
// Fragments are dropped so "#top" style anchors do not create new links.
func ResolveLink(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

// ClassifyLink reports whether an absolute link points at a PDF or a
// social profile. label is used as MetaInfo for PDFs.
func ClassifyLink(abs, label string) (domain.Media, bool) {
	if IsPDF(abs) {
		return domain.Media{URL: abs, Type: domain.MediaPDF, MetaInfo: label}, true
	}
	if network := domain.SocialNetwork(abs); network != "" {
		return domain.Media{URL: abs, Type: domain.MediaSocial, MetaInfo: network}, true
	}
	return domain.Media{}, false
}

// IsPDF reports whether the URL path ends in .pdf.
func IsPDF(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".pdf")
}

// MediaSet collects media in discovery order, keeping the first entry per URL.
type MediaSet struct {
	pageURL string
	seen    map[string]bool
	items   []domain.Media
}

// NewMediaSet creates a set whose entries are stamped with pageURL.
func NewMediaSet(pageURL string) *MediaSet {
	return &MediaSet{pageURL: pageURL, seen: make(map[string]bool)}
}

// Add inserts m unless its URL is already present.
func (s *MediaSet) Add(m domain.Media) {
	if s.seen[m.URL] {
		return
	}
	s.seen[m.URL] = true
	m.PageURL = s.pageURL
	s.items = append(s.items, m)
}

// Items returns the collected media.
func (s *MediaSet) Items() []domain.Media {
	return s.items
}

// LinkSet collects links in discovery order without duplicates.
type LinkSet struct {
	seen  map[string]bool
	items []string
}

// NewLinkSet creates an empty link set.
func NewLinkSet() *LinkSet {
	return &LinkSet{seen: make(map[string]bool)}
}

// Add inserts link unless already present.
func (s *LinkSet) Add(link string) {
	if s.seen[link] {
		return
	}
	s.seen[link] = true
	s.items = append(s.items, link)
}

// Items returns the collected links.
func (s *LinkSet) Items() []string {
	return s.items
}

// CollapseWhitespace joins the fields of s with single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
