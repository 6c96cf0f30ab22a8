// Package filewatcher reports file changes through fsnotify.
package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.FileWatcher = (*Watcher)(nil)

// DefaultDebounce is the quiet period before buffered events are delivered.
const DefaultDebounce = 300 * time.Millisecond

var log = logger.With("filewatcher")

// Watcher implements driven.FileWatcher using fsnotify. Events for the same
// path inside the debounce window are coalesced into one.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions map[string]struct{}
	debounce   time.Duration
	closeOnce  sync.Once
}

// New creates a watcher for files with the given extensions. An empty list
// accepts every extension. A zero debounce delivers events immediately.
func New(extensions []string, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}

	return &Watcher{
		watcher:    w,
		extensions: exts,
		debounce:   debounce,
	}, nil
}

// Watch starts monitoring dirs and emits filtered events.
func (w *Watcher) Watch(ctx context.Context, dirs ...string) (<-chan driven.FileEvent, error) {
	for _, dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return nil, err
		}
	}

	events := make(chan driven.FileEvent, 100)
	go w.loop(ctx, events)
	return events, nil
}

func (w *Watcher) loop(ctx context.Context, events chan<- driven.FileEvent) {
	defer close(events)

	pending := make(map[string]driven.FileOp)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	emit := func(ev driven.FileEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			ev, ok := w.handleEvent(event)
			if !ok {
				continue
			}
			if w.debounce <= 0 {
				if !emit(ev) {
					return
				}
				continue
			}
			pending[ev.Path] = mergeOps(pending[ev.Path], ev.Op)
			timer.Reset(w.debounce)

		case <-timer.C:
			for _, ev := range drain(pending) {
				if !emit(ev) {
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watch error: %v", err)
		}
	}
}

// handleEvent converts an fsnotify event, dropping hidden files,
// directories, unwatched extensions and chmod-only changes.
func (w *Watcher) handleEvent(event fsnotify.Event) (driven.FileEvent, bool) {
	if isHidden(event.Name) || !w.isWatchedExtension(event.Name) {
		return driven.FileEvent{}, false
	}

	var op driven.FileOp
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = driven.FileRemoved
	case event.Has(fsnotify.Create):
		op = driven.FileCreated
	case event.Has(fsnotify.Write):
		op = driven.FileModified
	default:
		return driven.FileEvent{}, false
	}

	if op != driven.FileRemoved {
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return driven.FileEvent{}, false
		}
	}

	return driven.FileEvent{Path: event.Name, Op: op}, true
}

func (w *Watcher) isWatchedExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
	})
	return err
}

// mergeOps keeps a create followed by writes as a create.
func mergeOps(prev, next driven.FileOp) driven.FileOp {
	if prev == driven.FileCreated && next == driven.FileModified {
		return prev
	}
	return next
}

// drain empties pending and returns its events ordered by path.
func drain(pending map[string]driven.FileOp) []driven.FileEvent {
	out := make([]driven.FileEvent, 0, len(pending))
	for path, op := range pending {
		out = append(out, driven.FileEvent{Path: path, Op: op})
		delete(pending, path)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
