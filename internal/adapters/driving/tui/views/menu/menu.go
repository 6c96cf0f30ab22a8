// Package menu is the start screen of the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Selecting it switches to View, or quits when
// Quit is set.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool
}

func defaultItems() []Item {
	return []Item{
		{Label: "Ask", Description: "Ask a question about your sources", View: messages.ViewSearch},
		{Label: "Sources", Description: "Browse and index ingested sources", View: messages.ViewSources},
		{Label: "Help", Description: "Keybindings", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	items  []Item
	cursor int
	ready  bool
}

// NewView uses the default styles and keys when s or km is nil.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{styles: s, keymap: km, items: defaultItems()}
}

func (v *View) Init() tea.Cmd { return nil }

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.press(msg.String())
	}
	return v, nil
}

func (v *View) press(key string) tea.Cmd {
	switch {
	case keymap.Matches(key, v.keymap.Up):
		v.cursor = max(v.cursor-1, 0)
	case keymap.Matches(key, v.keymap.Down):
		v.cursor = min(v.cursor+1, len(v.items)-1)
	case keymap.Matches(key, v.keymap.Select):
		return v.choose(v.items[v.cursor])
	case keymap.Matches(key, v.keymap.Quit):
		return tea.Quit
	}
	return nil
}

func (v *View) choose(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	lines := []string{
		v.styles.Title.Render("Sercha RAG"),
		v.styles.Muted.Render("Answers from your ingested sites"),
		"",
	}
	for i, item := range v.items {
		label := v.styles.Normal.Render("  " + item.Label)
		if i == v.cursor {
			label = v.styles.Selected.Render("> " + item.Label)
		}
		if item.Description != "" {
			label += "  " + v.styles.Muted.Render(item.Description)
		}
		lines = append(lines, label)
	}

	up, sel, quit := v.keymap.Up.Help(), v.keymap.Select.Help(), v.keymap.Quit.Help()
	lines = append(lines, "", v.styles.Help.Render(fmt.Sprintf("[%s] move  [%s] %s  [%s] %s",
		up.Key, sel.Key, sel.Desc, quit.Key, quit.Desc)))
	return strings.Join(lines, "\n")
}

// SetDimensions marks the view ready. The menu does not depend on size.
func (v *View) SetDimensions(_, _ int) { v.ready = true }

func (v *View) Selected() int { return v.cursor }
func (v *View) Items() []Item { return v.items }
