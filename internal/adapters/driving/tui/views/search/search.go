// Package search is the ask-a-question view: one input line, the answer
// panel and a status bar.
package search

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/answer"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// ErrNoQueryService indicates that no query service was provided.
var ErrNoQueryService = errors.New("query service is required")

// View lets the user ask a question and shows the summarized answer.
type View struct {
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	query  driving.QueryService
	topK   int

	input  *input.QueryInput
	answer *answer.Panel
	status *status.Bar

	ready     bool
	searching bool
}

// NewView creates the view. A nil queryService is reported as
// ErrNoQueryService when a question is submitted.
func NewView(s *styles.Styles, km *keymap.KeyMap, queryService driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		ctx:    context.Background(),
		styles: s,
		keymap: km,
		query:  queryService,
		input:  input.NewQueryInput(s),
		answer: answer.NewPanel(s),
		status: status.NewBar(s, km),
	}
}

// WithContext sets the context queries run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK sets the number of matches requested per query. Zero uses the
// service default.
func (v *View) WithTopK(topK int) *View {
	v.topK = topK
	return v
}

func (v *View) Init() tea.Cmd { return v.input.Init() }

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		return v, v.press(msg)
	case messages.QueryCompleted:
		v.completed(msg)
		return v, nil
	case messages.ErrorOccurred:
		v.fail(msg.Err, msg.Err.Error())
		return v, nil
	}

	// Spinner ticks and cursor blinks.
	var statusCmd, inputCmd tea.Cmd
	v.status, statusCmd = v.status.Update(msg)
	v.input, inputCmd = v.input.Update(msg)
	return v, tea.Batch(statusCmd, inputCmd)
}

// press handles a key. Esc always leaves the view; other keys are dropped
// while a query is running.
func (v *View) press(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyEsc:
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case v.searching:
		return nil
	case v.input.Focused() && msg.Type == tea.KeyEnter:
		return v.submit()
	case v.input.Focused():
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return cmd
	case keymap.Matches(msg.String(), v.keymap.NewSearch):
		v.Reset()
		return v.input.Init()
	}
	return nil
}

func (v *View) submit() tea.Cmd {
	question := v.input.Question()
	if question == "" {
		return nil
	}

	v.searching = true
	v.input.Blur()
	v.answer.Clear()

	ctx, svc, topK := v.ctx, v.query, v.topK
	ask := func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		result, err := svc.Query(ctx, question, topK)
		return messages.QueryCompleted{Result: result, Err: err}
	}
	return tea.Batch(v.status.StartSearching(), ask)
}

func (v *View) completed(msg messages.QueryCompleted) {
	if msg.Err != nil {
		v.fail(msg.Err, string(domain.KindOf(msg.Err)))
		return
	}
	v.searching = false
	v.answer.SetResult(msg.Result)
	v.status.SetAnswer(msg.Result)
}

// fail shows err in the panel and summary in the status bar.
func (v *View) fail(err error, summary string) {
	v.searching = false
	v.answer.SetError(err)
	v.status.SetState(status.StateError)
	v.status.SetMessage(summary)
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	parts := []string{v.styles.Title.Render("Sercha RAG"), "", v.input.View(), ""}
	if body := v.answer.View(); body != "" {
		parts = append(parts, body, "")
	}
	parts = append(parts, v.status.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetDimensions resizes the child components and marks the view ready.
// Height is unused; the answer panel wraps to the width.
func (v *View) SetDimensions(width, _ int) {
	v.ready = true
	v.input.SetWidth(width)
	v.answer.SetWidth(width)
	v.status.SetWidth(width)
}

func (v *View) Ready() bool                 { return v.ready }
func (v *View) Searching() bool             { return v.searching }
func (v *View) Question() string            { return v.input.Value() }
func (v *View) SetQuestion(question string) { v.input.SetValue(question) }
func (v *View) Answer() *answer.Panel       { return v.answer }
func (v *View) Status() *status.Bar         { return v.status }
func (v *View) InputFocused() bool          { return v.input.Focused() }

// Reset clears the question and answer and refocuses the input.
func (v *View) Reset() {
	v.searching = false
	v.input.Reset()
	v.input.Focus()
	v.answer.Clear()
	v.status.Clear()
}
