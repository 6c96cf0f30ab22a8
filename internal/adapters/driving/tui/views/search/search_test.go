package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type mockQueryService struct {
	result    *domain.QueryResult
	err       error
	lastQuery string
	lastTopK  int
}

func (m *mockQueryService) Query(_ context.Context, query string, topK int) (*domain.QueryResult, error) {
	m.lastQuery = query
	m.lastTopK = topK
	return m.result, m.err
}

func (m *mockQueryService) Backend() domain.SummarizerBackend {
	return domain.SummarizerOllama
}

func typeText(v *View, text string) *View {
	for _, r := range text {
		v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return v
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

func findQueryCompleted(t *testing.T, msgs []tea.Msg) messages.QueryCompleted {
	t.Helper()
	for _, m := range msgs {
		if qc, ok := m.(messages.QueryCompleted); ok {
			return qc
		}
	}
	require.Fail(t, "no QueryCompleted message")
	return messages.QueryCompleted{}
}

func answered() *domain.QueryResult {
	return &domain.QueryResult{
		Query:        "what does acme sell?",
		Summary:      "Acme sells anvils.",
		TotalResults: 2,
		Backend:      domain.SummarizerOllama,
		Stage:        domain.StageDone,
		Sources:      []string{"src-1"},
	}
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, &mockQueryService{})

	require.NotNil(t, v)
	assert.False(t, v.Ready())
	assert.True(t, v.InputFocused())
	assert.False(t, v.Searching())
	assert.NotNil(t, v.Init())
}

func TestView_NotReady(t *testing.T) {
	assert.Equal(t, "Initialising...", NewView(nil, nil, nil).View())
}

func TestView_WindowSize(t *testing.T) {
	v := NewView(nil, nil, nil)

	v, _ = v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.True(t, v.Ready())
	assert.Contains(t, v.View(), "Sercha RAG")
}

func TestView_SubmitRunsQuery(t *testing.T) {
	svc := &mockQueryService{result: answered()}
	v := NewView(nil, nil, svc).WithTopK(3)
	v = typeText(v, "  what does acme sell?  ")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, v.Searching())
	assert.False(t, v.InputFocused())
	assert.Equal(t, status.StateSearching, v.Status().State())

	qc := findQueryCompleted(t, collect(cmd))
	assert.Equal(t, "what does acme sell?", svc.lastQuery)
	assert.Equal(t, 3, svc.lastTopK)
	assert.NoError(t, qc.Err)

	v, _ = v.Update(qc)
	v.SetDimensions(100, 40)

	assert.False(t, v.Searching())
	assert.Equal(t, status.StateAnswered, v.Status().State())
	view := v.View()
	assert.Contains(t, view, "Acme sells anvils.")
	assert.Contains(t, view, "2 matches")
}

func TestView_SubmitEmptyIsIgnored(t *testing.T) {
	svc := &mockQueryService{}
	v := NewView(nil, nil, svc)
	v = typeText(v, "   ")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, v.Searching())
	assert.Empty(t, svc.lastQuery)
}

func TestView_QueryError(t *testing.T) {
	err := &domain.PipelineError{
		Stage: domain.StageSummarizing,
		Err:   fmt.Errorf("%w: timeout", domain.ErrSummarizationFailed),
	}
	v := NewView(nil, nil, &mockQueryService{err: err})
	v.SetDimensions(100, 40)

	v, _ = v.Update(messages.QueryCompleted{Err: err})

	assert.Equal(t, status.StateError, v.Status().State())
	assert.Equal(t, "summarization_failed", v.Status().Message())
	assert.ErrorIs(t, v.Answer().Err(), domain.ErrSummarizationFailed)
	assert.Contains(t, v.View(), "summarization_failed")
}

func TestView_NoResults(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.SetDimensions(100, 40)

	v, _ = v.Update(messages.QueryCompleted{Result: &domain.QueryResult{
		Summary: domain.NoResultsSummary,
		Stage:   domain.StageNoResults,
	}})

	assert.Contains(t, v.View(), domain.NoResultsSummary)
}

func TestView_NilServiceReportsError(t *testing.T) {
	v := NewView(nil, nil, nil)
	v = typeText(v, "hello")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	var got error
	for _, m := range collect(cmd) {
		if e, ok := m.(messages.ErrorOccurred); ok {
			got = e.Err
		}
	}
	assert.ErrorIs(t, got, ErrNoQueryService)
}

func TestView_ErrorOccurred(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.searching = true

	v, _ = v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.False(t, v.Searching())
	assert.Equal(t, status.StateError, v.Status().State())
	assert.Equal(t, "boom", v.Status().Message())
}

func TestView_KeysIgnoredWhileSearching(t *testing.T) {
	v := NewView(nil, nil, &mockQueryService{})
	v.searching = true

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})

	assert.Nil(t, cmd)
	assert.Empty(t, v.Question())
}

func TestView_NewQuestionAfterAnswer(t *testing.T) {
	v := NewView(nil, nil, &mockQueryService{})
	v.SetQuestion("old")
	v.input.Blur()
	v.answer.SetResult(answered())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})

	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Question())
	assert.True(t, v.Answer().Empty())
	assert.Equal(t, status.StateReady, v.Status().State())
}

func TestView_TypingNWhileFocusedEntersText(t *testing.T) {
	v := NewView(nil, nil, &mockQueryService{})

	v = typeText(v, "n")

	assert.Equal(t, "n", v.Question())
}

func TestView_EscGoesToMenu(t *testing.T) {
	_, cmd := NewView(nil, nil, nil).Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_WithContextPassesThrough(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")

	v := NewView(nil, nil, nil).WithContext(ctx)

	assert.Equal(t, ctx, v.ctx)
}
