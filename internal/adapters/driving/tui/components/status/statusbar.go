// Package status renders the one-line bar under the ask screen: progress
// or outcome on the left, key hints on the right.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateAnswered  State = "answered"
	StateError     State = "error"
	StateHelp      State = "help"
)

type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	hints   help.Model
	spinner spinner.Model
	width   int

	state   State
	message string

	// Set by SetAnswer.
	matches int
	backend domain.SummarizerBackend
}

// NewBar uses the default styles and keys when s or km is nil.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	hints := help.New()
	hints.ShortSeparator = " | "
	hints.Styles.ShortKey = s.Muted
	hints.Styles.ShortDesc = s.Muted
	hints.Styles.ShortSeparator = s.Muted

	return &Bar{
		styles:  s,
		keymap:  km,
		hints:   hints,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner)),
		width:   80,
		state:   StateReady,
	}
}

func (s *Bar) Init() tea.Cmd { return nil }

// Update only consumes spinner ticks, and only while searching, so the
// tick loop ends once the answer arrives.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	tick, ok := msg.(spinner.TickMsg)
	if !ok || s.state != StateSearching {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(tick)
	return s, cmd
}

// StartSearching returns the first spinner tick.
func (s *Bar) StartSearching() tea.Cmd {
	s.state, s.message = StateSearching, ""
	return s.spinner.Tick
}

// SetAnswer shows the match count and backend of result. A nil result or
// one without a backend reads as no matches.
func (s *Bar) SetAnswer(result *domain.QueryResult) {
	s.state, s.message = StateAnswered, ""
	s.matches, s.backend = 0, ""
	if result != nil {
		s.matches, s.backend = result.TotalResults, result.Backend
	}
}

// Clear returns to the ready state.
func (s *Bar) Clear() {
	s.state, s.message = StateReady, ""
	s.matches, s.backend = 0, ""
}

func (s *Bar) View() string {
	left, right := s.status(), s.hintLine()
	// The bar style pads one cell on each side.
	gap := max(s.width-2-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) status() string {
	st := s.styles
	switch s.state {
	case StateSearching:
		return s.spinner.View() + st.Muted.Render(" Thinking...")
	case StateAnswered:
		if s.backend == "" {
			return st.Muted.Render("No matches")
		}
		return st.Normal.Render(fmt.Sprintf("%d matches · %s", s.matches, s.backend))
	case StateError:
		if s.message == "" {
			return st.Error.Render("Error")
		}
		return st.Error.Render("Error: " + s.message)
	case StateHelp:
		return st.Normal.Render("Help")
	}
	if s.message != "" {
		return st.Normal.Render(s.message)
	}
	return st.Muted.Render("Ready")
}

func (s *Bar) hintLine() string {
	if s.state == StateAnswered {
		return s.hints.ShortHelpView(s.keymap.AnswerHelp())
	}
	return s.hints.ShortHelpView(s.keymap.ShortHelp())
}

func (s *Bar) SetState(state State)      { s.state = state }
func (s *Bar) State() State              { return s.state }
func (s *Bar) SetMessage(message string) { s.message = message }
func (s *Bar) Message() string           { return s.message }
func (s *Bar) Matches() int              { return s.matches }
func (s *Bar) SetWidth(width int)        { s.width = width }
func (s *Bar) Width() int                { return s.width }
