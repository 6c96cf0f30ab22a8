package domain

// RawPage is one page handed to the ingest service before extraction.
type RawPage struct {
	// URL is the page address. Relative links on the page resolve against it.
	URL string

	// Filename is the local file the page was read from, if any.
	Filename string

	// MIMEType is the content type (e.g. "text/html"). Inferred from
	// Filename when empty.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// ExtractedPage is the normaliser output for a RawPage.
type ExtractedPage struct {
	Title string

	// Text is whitespace-collapsed plain text, the input to chunking.
	Text string

	// Markdown is a markdown rendering of the page.
	Markdown string

	// Links are absolute http(s) links found on the page, deduped.
	Links []string

	// Media are asset links found on the page. ID and SourceID are unset.
	Media []Media
}

// IngestRequest describes a batch of pages captured from one site.
type IngestRequest struct {
	BaseURL string
	Type    string
	Pages   []RawPage

	// Key makes the ingest replace the source stored under the same key
	// instead of adding a new one.
	Key string
}

// IngestResult is the outcome of one ingest.
type IngestResult struct {
	Source Source

	// Replaced is set when Key matched an existing source.
	Replaced bool

	// StaleChunkIDs are chunks of the replaced source that no longer exist.
	// Their vector records are dropped with IndexService.DropChunks.
	StaleChunkIDs []string
}
