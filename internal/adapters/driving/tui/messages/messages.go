// Package messages holds the tea.Msg types exchanged between the TUI
// root model, its views and the commands that call the core services.
package messages

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// ViewType names a screen of the TUI.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewSearch
	ViewSources
	ViewHelp
	ViewSourceDetail
)

var viewNames = [...]string{
	ViewMenu:         "menu",
	ViewSearch:       "search",
	ViewSources:      "sources",
	ViewHelp:         "help",
	ViewSourceDetail: "source_detail",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// Navigation.
type (
	// ViewChanged asks the root model to switch screens.
	ViewChanged struct{ View ViewType }

	// SourceSelected opens the detail screen for Source.
	SourceSelected struct{ Source domain.Source }

	Quit struct{}
)

// Results of asynchronous commands. Err is set instead of the payload when
// the call failed.
type (
	QueryCompleted struct {
		Result *domain.QueryResult
		Err    error
	}

	SourcesLoaded struct {
		Sources []domain.Source
		Err     error
	}

	// SourceDetailLoaded reports stored counts for one source.
	SourceDetailLoaded struct {
		SourceID string
		Pages    int
		Chunks   int
		Embedded int
		Media    int
		Err      error
	}

	SourceIndexed struct {
		Stats *domain.IndexStats
		Err   error
	}

	// ErrorOccurred surfaces a failure that has no dedicated message.
	ErrorOccurred struct{ Err error }
)
