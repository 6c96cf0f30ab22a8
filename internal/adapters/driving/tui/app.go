// Package tui is the interactive terminal front end: a menu, an ask screen,
// and source browsing with on-demand indexing.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/sourcedetail"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/sources"
)

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// App is the root model. It owns one model per screen and forwards each
// message to the screen it belongs to.
type App struct {
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView         *menu.View
	searchView       *search.View
	sourcesView      *sources.View
	sourceDetailView *sourcedetail.View

	current messages.ViewType
	err     error
	ready   bool
}

// NewApp builds every screen up front. The menu is shown first.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	st, km := styles.DefaultStyles(), keymap.DefaultKeyMap()
	return &App{
		ctx:              context.Background(),
		styles:           st,
		keymap:           km,
		menuView:         menu.NewView(st, km),
		searchView:       search.NewView(st, km, ports.Query),
		sourcesView:      sources.NewView(st, km, ports.Source),
		sourceDetailView: sourcedetail.NewView(st, km, ports.Source, ports.Index),
		current:          messages.ViewMenu,
	}, nil
}

// WithContext makes service calls run under ctx, so cancelling it aborts
// an in-flight question or index run.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.sourcesView.WithContext(ctx)
	a.sourceDetailView.WithContext(ctx)
	return a
}

// WithTopK sets how many matches each question retrieves. Zero keeps the
// configured default.
func (a *App) WithTopK(topK int) *App {
	a.searchView.WithTopK(topK)
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tea.SetWindowTitle("sercha-rag"))
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.onKey(msg)
	case messages.Quit:
		return a, tea.Quit
	case messages.ViewChanged:
		return a, a.switchTo(msg.View)
	case messages.SourceSelected:
		a.sourceDetailView.SetSource(msg.Source)
		return a, a.switchTo(messages.ViewSourceDetail)
	case messages.QueryCompleted:
		a.err = msg.Err
		return a, a.forward(messages.ViewSearch, msg)
	case messages.SourcesLoaded:
		return a, a.forward(messages.ViewSources, msg)
	case messages.SourceDetailLoaded, messages.SourceIndexed:
		return a, a.forward(messages.ViewSourceDetail, msg)
	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.current == messages.ViewSearch || a.current == messages.ViewSourceDetail {
			return a, a.forward(a.current, msg)
		}
		return a, nil
	}

	// Spinner ticks and cursor blinks only matter while asking.
	if a.current == messages.ViewSearch {
		return a, a.forward(messages.ViewSearch, msg)
	}
	return a, nil
}

// forward hands msg to the model of view.
func (a *App) forward(view messages.ViewType, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch view { //nolint:exhaustive // help has no model
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewSources:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
	case messages.ViewSourceDetail:
		a.sourceDetailView, cmd = a.sourceDetailView.Update(msg)
	}
	return cmd
}

// onKey applies the app-level keys of the current screen, then forwards.
// Typing on the ask screen must not quit, so q only quits from lists.
func (a *App) onKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch a.current { //nolint:exhaustive // other screens handle their own keys
	case messages.ViewHelp:
		if keymap.Matches(key, a.keymap.Back) {
			a.current = messages.ViewMenu
		}
		return nil
	case messages.ViewSources:
		if keymap.Matches(key, a.keymap.Quit) {
			return tea.Quit
		}
	}
	return a.forward(a.current, msg)
}

// switchTo makes view current and returns the command that loads it.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.current = view
	switch view { //nolint:exhaustive // menu and help are static
	case messages.ViewSearch:
		a.searchView.Reset()
		return a.searchView.Init()
	case messages.ViewSources:
		return a.sourcesView.Init()
	case messages.ViewSourceDetail:
		return a.sourceDetailView.Init()
	}
	return nil
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.current { //nolint:exhaustive // menu is the fallback
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewSources:
		return a.sourcesView.View()
	case messages.ViewSourceDetail:
		return a.sourceDetailView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	}
	return a.menuView.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n")
	for _, section := range a.keymap.Sections() {
		fmt.Fprintf(&b, "\n%s:\n", section.Title)
		for _, binding := range section.Bindings {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s  %s\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run blocks until the user quits or the context is cancelled.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

func (a *App) CurrentView() messages.ViewType { return a.current }
func (a *App) Err() error                     { return a.err }

// Ready reports whether the first window size has arrived.
func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes every screen.
func (a *App) SetDimensions(width, height int) {
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.sourcesView.SetDimensions(width, height)
	a.sourceDetailView.SetDimensions(width, height)
}
