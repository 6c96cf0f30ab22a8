package status

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Zero(t, bar.Matches())
	assert.Nil(t, bar.Init())
}

func TestNewBar_NilDependencies(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_Update_IgnoresKeys(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Same(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestBar_StartSearching(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetMessage("old")

	cmd := bar.StartSearching()

	require.NotNil(t, cmd)
	assert.Equal(t, StateSearching, bar.State())
	assert.Empty(t, bar.Message())
	assert.Contains(t, bar.View(), "Thinking")

	_, isTick := cmd().(spinner.TickMsg)
	assert.True(t, isTick)
}

func TestBar_Update_SpinsOnlyWhileSearching(t *testing.T) {
	bar := NewBar(nil, nil)
	tick := bar.StartSearching()()

	_, cmd := bar.Update(tick)
	assert.NotNil(t, cmd)

	bar.SetState(StateReady)
	_, cmd = bar.Update(tick)
	assert.Nil(t, cmd)
}

func TestBar_SetAnswer(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetAnswer(&domain.QueryResult{TotalResults: 3, Backend: domain.SummarizerOpenAI, Stage: domain.StageDone})

	assert.Equal(t, StateAnswered, bar.State())
	assert.Equal(t, 3, bar.Matches())
	view := bar.View()
	assert.Contains(t, view, "3 matches · openai")
	assert.Contains(t, view, "new question")
}

func TestBar_SetAnswer_NoResults(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetAnswer(&domain.QueryResult{Summary: domain.NoResultsSummary, Stage: domain.StageNoResults})

	assert.Contains(t, bar.View(), "No matches")
}

func TestBar_View_States(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		message  string
		contains string
	}{
		{"ready", StateReady, "", "Ready"},
		{"ready with message", StateReady, "Indexed 4 chunks", "Indexed 4 chunks"},
		{"error", StateError, "boom", "Error: boom"},
		{"error without message", StateError, "", "Error"},
		{"help", StateHelp, "", "Help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)

			view := bar.View()

			assert.Contains(t, view, tt.contains)
			assert.Contains(t, view, "quit")
		})
	}
}

func TestBar_SetWidth(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetWidth(42)

	assert.Equal(t, 42, bar.Width())
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetAnswer(&domain.QueryResult{TotalResults: 2, Backend: domain.SummarizerOllama})
	bar.SetMessage("m")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Zero(t, bar.Matches())
}
