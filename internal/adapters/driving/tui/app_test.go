package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Query:  &MockQueryService{},
		Source: &MockSourceService{},
		Index:  &MockIndexService{},
	}
}

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

func update(app *App, msg tea.Msg) tea.Cmd {
	_, cmd := app.Update(msg)
	return cmd
}

// drain runs cmd, flattening batches, and feeds every message back into app.
// Spinner ticks are not fed back so the loop terminates.
func drain(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(app, c)
		}
	case messages.QueryCompleted, messages.SourcesLoaded, messages.SourceDetailLoaded,
		messages.SourceIndexed, messages.ViewChanged, messages.SourceSelected, messages.ErrorOccurred:
		drain(app, update(app, msg))
	}
}

func typeText(app *App, text string) {
	for _, r := range text {
		update(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Source: &MockSourceService{}})

	assert.ErrorIs(t, err, ErrMissingQueryService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Same(t, app, app.WithContext(ctx))
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_View_NotReady(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	update(app, tea.WindowSizeMsg{Width: 90, Height: 30})

	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "Sercha RAG")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	cmd := update(app, tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	cmd := update(app, messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_MenuToSearchAndAsk(t *testing.T) {
	var gotQuery string
	var gotTopK int
	ports := newTestPorts()
	ports.Query = &MockQueryService{
		QueryFunc: func(_ context.Context, query string, topK int) (*domain.QueryResult, error) {
			gotQuery, gotTopK = query, topK
			return &domain.QueryResult{
				Query:        query,
				Summary:      "Acme sells anvils.",
				TotalResults: 3,
				Backend:      domain.SummarizerOllama,
				Stage:        domain.StageDone,
			}, nil
		},
	}
	app := newTestApp(t, ports).WithTopK(4)

	// Menu starts on "Ask".
	drain(app, update(app, tea.KeyMsg{Type: tea.KeyEnter}))
	require.Equal(t, messages.ViewSearch, app.CurrentView())

	typeText(app, "what does acme sell?")
	drain(app, update(app, tea.KeyMsg{Type: tea.KeyEnter}))

	assert.Equal(t, "what does acme sell?", gotQuery)
	assert.Equal(t, 4, gotTopK)
	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "Acme sells anvils.")
}

func TestApp_QueryErrorIsRecorded(t *testing.T) {
	ports := newTestPorts()
	ports.Query = &MockQueryService{
		QueryFunc: func(_ context.Context, _ string, _ int) (*domain.QueryResult, error) {
			return nil, &domain.PipelineError{Stage: domain.StageEmbedding, Err: domain.ErrEmbeddingUnavailable}
		},
	}
	app := newTestApp(t, ports)
	drain(app, update(app, messages.ViewChanged{View: messages.ViewSearch}))

	typeText(app, "hello")
	drain(app, update(app, tea.KeyMsg{Type: tea.KeyEnter}))

	assert.ErrorIs(t, app.Err(), domain.ErrEmbeddingUnavailable)
	assert.Contains(t, app.View(), "embedding_unavailable")
}

func TestApp_SourcesFlow(t *testing.T) {
	ports := newTestPorts()
	ports.Source = &MockSourceService{
		ListFunc: func(_ context.Context) ([]domain.Source, error) {
			return []domain.Source{{ID: "src-1", Type: "website", Title: "Acme Home", PageCount: 1}}, nil
		},
	}
	index := ports.Index.(*MockIndexService)
	app := newTestApp(t, ports)

	drain(app, update(app, messages.ViewChanged{View: messages.ViewSources}))
	assert.Equal(t, messages.ViewSources, app.CurrentView())
	assert.Contains(t, app.View(), "Acme Home")

	drain(app, update(app, tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Equal(t, messages.ViewSourceDetail, app.CurrentView())
	assert.Contains(t, app.View(), "2 (1 embedded)")

	drain(app, update(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'i'}}))
	assert.Equal(t, []string{"src-1"}, index.Indexed)
	assert.Contains(t, app.View(), "Embedded 1, upserted 2")

	drain(app, update(app, tea.KeyMsg{Type: tea.KeyEsc}))
	assert.Equal(t, messages.ViewSources, app.CurrentView())

	drain(app, update(app, tea.KeyMsg{Type: tea.KeyEsc}))
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_SourcesQKeyQuits(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	update(app, messages.ViewChanged{View: messages.ViewSources})

	cmd := update(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	update(app, messages.ViewChanged{View: messages.ViewHelp})
	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "new question")
	assert.Contains(t, view, "Sources:")

	update(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	update(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	update(app, messages.ViewChanged{View: messages.ViewSearch})

	update(app, messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Contains(t, app.View(), "boom")
}

func TestApp_ErrorOccurred_InMenu(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	cmd := update(app, messages.ErrorOccurred{Err: errors.New("boom")})

	assert.Nil(t, cmd)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ViewChanged_ToSearchResets(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	update(app, messages.ViewChanged{View: messages.ViewSearch})
	typeText(app, "draft")

	update(app, messages.ViewChanged{View: messages.ViewMenu})
	update(app, messages.ViewChanged{View: messages.ViewSearch})

	assert.Empty(t, app.searchView.Question())
}
