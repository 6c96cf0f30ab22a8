// Package keymap holds the TUI key bindings and the help groupings built
// from them.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is the set of bindings shared by every view.
type KeyMap struct {
	// Global.
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Lists.
	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	// Ask view.
	Search    key.Binding
	NewSearch key.Binding
	Cancel    key.Binding

	// Source views.
	Reload key.Binding
	Index  key.Binding
}

// Section is a titled group of bindings on the help screen.
type Section struct {
	Title    string
	Bindings []key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns vim-style list movement with enter to confirm and
// esc to go back.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: bind("q", "quit", "q", "ctrl+c"),
		Help: bind("?", "help", "?"),
		Back: bind("esc", "back", "esc"),

		Up:     bind("↑/k", "up", "up", "k"),
		Down:   bind("↓/j", "down", "down", "j"),
		Select: bind("enter", "select", "enter"),

		Search:    bind("enter", "ask", "enter"),
		NewSearch: bind("n", "new question", "n"),
		Cancel:    bind("esc", "cancel", "esc"),

		Reload: bind("r", "reload", "r"),
		Index:  bind("i", "index", "i"),
	}
}

// ShortHelp is shown in the status bar outside the answer view.
func (k *KeyMap) ShortHelp() []key.Binding { return []key.Binding{k.Quit, k.Help} }

// AnswerHelp is shown in the status bar once an answer is on screen.
func (k *KeyMap) AnswerHelp() []key.Binding { return []key.Binding{k.NewSearch, k.Back} }

func (k *KeyMap) SourcesHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Reload, k.Back}
}

// Sections groups the bindings for the help screen.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{Title: "Lists", Bindings: []key.Binding{k.Up, k.Down, k.Select}},
		{Title: "Ask", Bindings: []key.Binding{k.Search, k.NewSearch, k.Back}},
		{Title: "Sources", Bindings: []key.Binding{k.Reload, k.Index, k.Help, k.Quit}},
	}
}

// Matches reports whether keyStr is one of the binding's keys.
func Matches(keyStr string, binding key.Binding) bool {
	return slices.Contains(binding.Keys(), keyStr)
}
