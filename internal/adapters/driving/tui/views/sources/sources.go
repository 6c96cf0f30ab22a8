// Package sources is the screen listing ingested sources.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// ErrNoSourceService is reported when the view was built without a service.
var ErrNoSourceService = errors.New("source service not available")

const (
	typeColumn = 10
	minName    = 10
)

// View shows one row per source, newest first as returned by the service.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	service driving.SourceService
	ctx     context.Context

	rows    []domain.Source
	cursor  int
	width   int
	loading bool
	err     error
}

// NewView uses the default styles and keys when s or km is nil.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.SourceService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{styles: s, keymap: km, service: service, ctx: context.Background(), width: 80}
}

func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts loading the list.
func (v *View) Init() tea.Cmd { return v.reload() }

func (v *View) reload() tea.Cmd {
	v.loading = true
	ctx, svc := v.ctx, v.service
	return func() tea.Msg {
		if svc == nil {
			return messages.SourcesLoaded{Err: ErrNoSourceService}
		}
		list, err := svc.List(ctx)
		return messages.SourcesLoaded{Sources: list, Err: err}
	}
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.press(msg.String())
	case messages.SourcesLoaded:
		v.loaded(msg)
	}
	return v, nil
}

// loaded keeps the previous rows when the reload failed.
func (v *View) loaded(msg messages.SourcesLoaded) {
	v.loading = false
	v.err = msg.Err
	if msg.Err != nil {
		return
	}
	v.rows = msg.Sources
	v.cursor = min(v.cursor, max(len(v.rows)-1, 0))
}

func (v *View) press(key string) tea.Cmd {
	switch {
	case keymap.Matches(key, v.keymap.Up):
		v.cursor = max(v.cursor-1, 0)
	case keymap.Matches(key, v.keymap.Down):
		v.cursor = max(min(v.cursor+1, len(v.rows)-1), 0)
	case keymap.Matches(key, v.keymap.Select):
		if v.cursor >= len(v.rows) {
			return nil
		}
		src := v.rows[v.cursor]
		return func() tea.Msg { return messages.SourceSelected{Source: src} }
	case keymap.Matches(key, v.keymap.Reload):
		return v.reload()
	case keymap.Matches(key, v.keymap.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}
	return nil
}

func (v *View) View() string {
	var body string
	switch {
	case v.loading:
		body = v.styles.Muted.Render("Loading sources...")
	case v.err != nil:
		body = v.styles.Error.Render("Error: " + v.err.Error())
	case len(v.rows) == 0:
		body = v.styles.Muted.Render("No sources ingested. Run `sercha-rag ingest` to add one.")
	default:
		rows := make([]string, len(v.rows))
		for i := range v.rows {
			rows[i] = v.row(&v.rows[i], i == v.cursor)
		}
		body = strings.Join(rows, "\n")
	}

	return v.styles.Title.Render("Sources") + "\n\n" + body + "\n\n" +
		v.styles.Help.Render("[enter] details  [r] reload  [esc] back  [q] quit")
}

func (v *View) row(src *domain.Source, selected bool) string {
	kind := fmt.Sprintf("[%s]", src.Type)
	pages := fmt.Sprintf("%d pages", src.PageCount)
	name := truncate(src.DisplayName(), max(v.width-typeColumn-len(pages)-8, minName))

	if selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %-*s %s  %s", typeColumn, kind, name, pages))
	}
	return "  " + v.styles.Subtitle.Render(fmt.Sprintf("%-*s ", typeColumn, kind)) +
		v.styles.Normal.Render(name) + "  " + v.styles.Muted.Render(pages)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// SetDimensions only uses the width, to fit long names.
func (v *View) SetDimensions(width, _ int) { v.width = width }

func (v *View) Sources() []domain.Source { return v.rows }
func (v *View) SelectedIndex() int       { return v.cursor }
func (v *View) Loading() bool            { return v.loading }
func (v *View) Err() error               { return v.err }
