// Package answer renders the result of a query.
package answer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Panel shows a summary, or the error that prevented one.
type Panel struct {
	styles *styles.Styles
	result *domain.QueryResult
	err    error
	width  int
}

// NewPanel creates an empty answer panel.
func NewPanel(s *styles.Styles) *Panel {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Panel{styles: s, width: 80}
}

// SetResult shows result and clears any error.
func (p *Panel) SetResult(result *domain.QueryResult) {
	p.result = result
	p.err = nil
}

// SetError shows err and clears any result.
func (p *Panel) SetError(err error) {
	p.err = err
	p.result = nil
}

// Result returns the displayed result, if any.
func (p *Panel) Result() *domain.QueryResult {
	return p.result
}

// Err returns the displayed error, if any.
func (p *Panel) Err() error {
	return p.err
}

// Empty reports whether there is nothing to show.
func (p *Panel) Empty() bool {
	return p.result == nil && p.err == nil
}

// Clear resets the panel.
func (p *Panel) Clear() {
	p.result = nil
	p.err = nil
}

// SetWidth sets the wrap width.
func (p *Panel) SetWidth(width int) {
	p.width = width
}

// Width returns the wrap width.
func (p *Panel) Width() int {
	return p.width
}

// View renders the panel.
func (p *Panel) View() string {
	switch {
	case p.err != nil:
		return p.renderError()
	case p.result == nil:
		return ""
	case !p.result.HasResults():
		return p.styles.Muted.Render(p.result.Summary)
	}

	var b strings.Builder
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		p.styles.Badge.Render(p.result.Backend.String()),
		" ",
		p.styles.Muted.Render(fmt.Sprintf("%d matches", p.result.TotalResults)),
	)
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(p.styles.Answer.Width(max(p.width-4, 20)).Render(p.result.Summary))

	if len(p.result.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(p.styles.Muted.Render("Sources: " + strings.Join(p.result.Sources, ", ")))
	}
	return b.String()
}

func (p *Panel) renderError() string {
	return p.styles.Error.Render(fmt.Sprintf("Error (%s): %v", domain.KindOf(p.err), p.err))
}
