// Package html provides a Normaliser implementation for HTML pages.
// It extracts readable text, resolves links against the page URL,
// classifies media links, and renders the page as markdown.
package html
