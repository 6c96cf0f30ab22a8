// Package sourcedetail shows one source and lets the user re-index it.
package sourcedetail

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var (
	// ErrIndexUnavailable is reported when Index Now is chosen without an index service.
	ErrIndexUnavailable = errors.New("indexing not available")

	errNoSourceService = errors.New("source service not available")
)

// MenuOption is an action offered below the source details.
type MenuOption int

const (
	OptionIndexNow MenuOption = iota
	OptionBack
)

var optionLabels = [...]string{
	OptionIndexNow: "Index Now",
	OptionBack:     "Back",
}

const ruleWidth = 40

// View shows one source with its page, chunk and media counts.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	sources driving.SourceService
	indexer driving.IndexService

	source   *domain.Source
	detail   messages.SourceDetailLoaded
	loaded   bool
	selected MenuOption
	indexing bool
	notice   string
	err      error
	width    int
}

// NewView creates the view. indexService may be nil, in which case Index
// Now reports ErrIndexUnavailable.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	sourceService driving.SourceService,
	indexService driving.IndexService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		ctx:     context.Background(),
		styles:  s,
		keymap:  km,
		sources: sourceService,
		indexer: indexService,
		width:   80,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetSource switches to source and clears everything shown for the
// previous one.
func (v *View) SetSource(source domain.Source) {
	*v = View{
		ctx:     v.ctx,
		styles:  v.styles,
		keymap:  v.keymap,
		sources: v.sources,
		indexer: v.indexer,
		width:   v.width,
		source:  &source,
	}
}

// Init loads the counts for the current source.
func (v *View) Init() tea.Cmd {
	if v.source == nil {
		return nil
	}
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, svc, id := v.ctx, v.sources, v.source.ID
	return func() tea.Msg { return fetchDetail(ctx, svc, id) }
}

// fetchDetail counts what has been ingested for a source.
func fetchDetail(ctx context.Context, svc driving.SourceService, id string) messages.SourceDetailLoaded {
	msg := messages.SourceDetailLoaded{SourceID: id}
	if svc == nil {
		msg.Err = errNoSourceService
		return msg
	}

	pages, err := svc.Pages(ctx, id)
	if err != nil {
		msg.Err = err
		return msg
	}
	chunks, err := svc.Chunks(ctx, id)
	if err != nil {
		msg.Err = err
		return msg
	}
	media, err := svc.Media(ctx, id)
	if err != nil {
		msg.Err = err
		return msg
	}

	msg.Pages, msg.Chunks, msg.Media = len(pages), len(chunks), len(media)
	for i := range chunks {
		if chunks[i].HasEmbedding() {
			msg.Embedded++
		}
	}
	return msg
}

// Update handles messages for the source detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.press(msg.String())
	case messages.SourceDetailLoaded:
		v.detailLoaded(msg)
	case messages.SourceIndexed:
		return v, v.indexed(msg)
	case messages.ErrorOccurred:
		v.err = msg.Err
		v.indexing = false
	}
	return v, nil
}

func (v *View) detailLoaded(msg messages.SourceDetailLoaded) {
	if v.source == nil || msg.SourceID != v.source.ID {
		return
	}
	if msg.Err != nil {
		v.err = msg.Err
		return
	}
	v.detail = msg
	v.loaded = true
}

// indexed records the outcome of Index Now and reloads the counts.
func (v *View) indexed(msg messages.SourceIndexed) tea.Cmd {
	v.indexing = false
	v.err = msg.Err
	if msg.Err != nil {
		return nil
	}
	if msg.Stats != nil {
		v.notice = fmt.Sprintf("Embedded %d, upserted %d", msg.Stats.Embedded, msg.Stats.Upserted)
	}
	if v.source == nil {
		return nil
	}
	return v.load()
}

func (v *View) press(key string) tea.Cmd {
	km := v.keymap
	switch {
	case keymap.Matches(key, km.Up):
		v.selected = max(v.selected-1, OptionIndexNow)
	case keymap.Matches(key, km.Down):
		v.selected = min(v.selected+1, OptionBack)
	case keymap.Matches(key, km.Index):
		return v.startIndex()
	case keymap.Matches(key, km.Select):
		if v.selected == OptionIndexNow {
			return v.startIndex()
		}
		return backToSources
	case keymap.Matches(key, km.Back):
		return backToSources
	}
	return nil
}

func backToSources() tea.Msg {
	return messages.ViewChanged{View: messages.ViewSources}
}

// startIndex is a no-op while a previous run is in flight.
func (v *View) startIndex() tea.Cmd {
	if v.source == nil || v.indexing {
		return nil
	}
	v.indexing, v.notice, v.err = true, "", nil

	ctx, svc, id := v.ctx, v.indexer, v.source.ID
	return func() tea.Msg {
		if svc == nil {
			return messages.SourceIndexed{Err: ErrIndexUnavailable}
		}
		stats, err := svc.IndexSource(ctx, id)
		return messages.SourceIndexed{Stats: stats, Err: err}
	}
}

// View renders the source detail view.
func (v *View) View() string {
	if v.source == nil {
		return v.styles.Muted.Render("No source selected")
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Source: "+v.source.DisplayName()) + "\n\n")
	v.writeFields(&b)
	b.WriteString("\n")
	if line := v.statusLine(); line != "" {
		b.WriteString(line + "\n\n")
	}
	b.WriteString(strings.Repeat("─", max(min(ruleWidth, v.width-4), 0)) + "\n\n")

	for opt, label := range optionLabels {
		if MenuOption(opt) == v.selected {
			b.WriteString(v.styles.Selected.Render("> "+label) + "\n")
		} else {
			b.WriteString(v.styles.Normal.Render("  "+label) + "\n")
		}
	}

	up, idx, back := v.keymap.Up.Help(), v.keymap.Index.Help(), v.keymap.Back.Help()
	b.WriteString("\n" + v.styles.Help.Render(fmt.Sprintf("[%s] navigate  [enter] select  [%s] %s  [%s] back",
		up.Key, idx.Key, idx.Desc, back.Key)))
	return b.String()
}

func (v *View) writeFields(b *strings.Builder) {
	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(v.styles.Subtitle.Render(label+": ") + v.styles.Normal.Render(value) + "\n")
	}
	row("ID", v.source.ID)
	row("Type", v.source.Type)
	row("Base URL", v.source.BaseURL)

	switch {
	case v.loaded:
		row("Pages", strconv.Itoa(v.detail.Pages))
		row("Chunks", fmt.Sprintf("%d (%d embedded)", v.detail.Chunks, v.detail.Embedded))
		row("Media", strconv.Itoa(v.detail.Media))
	case v.err == nil:
		b.WriteString(v.styles.Muted.Render("Loading...") + "\n")
	}
}

func (v *View) statusLine() string {
	switch {
	case v.err != nil:
		return v.styles.Error.Render(fmt.Sprintf("Error (%s): %v", domain.KindOf(v.err), v.err))
	case v.indexing:
		return v.styles.Warning.Render("Indexing...")
	case v.notice != "":
		return v.styles.Success.Render(v.notice)
	}
	return ""
}

// SetDimensions records the width used for the divider.
func (v *View) SetDimensions(width, _ int) { v.width = width }

func (v *View) Source() *domain.Source              { return v.source }
func (v *View) Detail() messages.SourceDetailLoaded { return v.detail }
func (v *View) SelectedOption() MenuOption          { return v.selected }
func (v *View) Indexing() bool                      { return v.indexing }
func (v *View) Err() error                          { return v.err }
