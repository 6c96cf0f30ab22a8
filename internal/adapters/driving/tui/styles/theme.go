// Package styles holds the colour palette and the lipgloss styles shared by
// the TUI screens.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette used across views.
type Theme struct {
	Accent     lipgloss.Color
	Highlight  lipgloss.Color
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Panel      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is a slate palette with sky and pink accents.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:     "#0EA5E9",
		Highlight:  "#F472B6",
		Foreground: "#E2E8F0",
		Subtle:     "#64748B",
		Panel:      "#0F172A",
		Success:    "#4ADE80",
		Warning:    "#FACC15",
		Error:      "#F87171",
	}
}

// Styles are the rendered forms of a Theme.
type Styles struct {
	theme *Theme

	// Text.
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Help     lipgloss.Style
	Spinner  lipgloss.Style

	// Frames.
	InputField lipgloss.Style // question input
	Answer     lipgloss.Style // pipeline summary
	Badge      lipgloss.Style // short labels such as the summarizer backend
	StatusBar  lipgloss.Style
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// NewStyles renders theme, or the default theme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.Highlight).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Subtle),
		Selected: fg(theme.Panel).Background(theme.Accent).Bold(true),
		Error:    fg(theme.Error),
		Success:  fg(theme.Success),
		Warning:  fg(theme.Warning),
		Help:     fg(theme.Subtle).Italic(true),
		Spinner:  fg(theme.Highlight),

		InputField: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent).
			Padding(0, 1),
		Answer: fg(theme.Foreground).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(theme.Highlight).
			PaddingLeft(1),
		Badge:     fg(theme.Panel).Background(theme.Highlight).Padding(0, 1),
		StatusBar: fg(theme.Subtle).Background(theme.Panel).Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles { return NewStyles(DefaultTheme()) }

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme { return s.theme }
