package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/filewatcher"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// watchExtensions are the page formats the watch command ingests.
var watchExtensions = []string{".html", ".htm", ".md", ".markdown", ".txt"}

// newWatcher builds the file watcher. Tests replace it.
var newWatcher = func(extensions []string, debounce time.Duration) (driven.FileWatcher, error) {
	return filewatcher.New(extensions, debounce)
}

var (
	watchBaseURL string
	watchType    string
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest and index pages as they change",
	Long: `Watches a directory for HTML, markdown and text files. Each new or changed
file is ingested as a source and indexed straight away. A file keeps one
source: when it changes again its pages and chunks are replaced and the
vectors of chunks that no longer exist are dropped. Edits to prompt
templates are picked up without a restart.

Removed files are reported but their sources are kept.

Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchBaseURL, "base-url", "", "URL the directory mirrors; file paths are resolved against it")
	watchCmd.Flags().StringVar(&watchType, "type", "website", "free-form source type label")
	rootCmd.AddCommand(watchCmd)
}

// pageWatcher ingests and indexes files reported by a FileWatcher.
type pageWatcher struct {
	dir       string
	promptDir string
	base      *url.URL
	srcType   string
	engine    *Engine
	out       io.Writer
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidParameter, dir)
	}

	base, err := parseBaseURL(watchBaseURL)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	engine, err := openEngine(ctx, false)
	if err != nil {
		return err
	}
	defer closeEngine(engine)

	watcher, err := newWatcher(watchExtensions, filewatcher.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	pw := &pageWatcher{
		dir:     dir,
		base:    base,
		srcType: watchType,
		engine:  engine,
		out:     cmd.OutOrStdout(),
	}

	dirs := []string{dir}
	if promptStore != nil {
		if _, err := os.Stat(promptStore.Dir()); err == nil {
			pw.promptDir = promptStore.Dir()
			dirs = append(dirs, pw.promptDir)
		}
	}

	events, err := watcher.Watch(ctx, dirs...)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", dir)
	for ev := range events {
		pw.handle(ctx, ev)
	}
	return nil
}

// handle processes one event. Failures are reported and the watch continues.
func (w *pageWatcher) handle(ctx context.Context, ev driven.FileEvent) {
	if w.promptDir != "" && filepath.Dir(ev.Path) == w.promptDir {
		if promptStore != nil {
			promptStore.Reload()
		}
		fmt.Fprintf(w.out, "Reloaded prompts (%s %s)\n", filepath.Base(ev.Path), ev.Op)
		return
	}

	rel := w.relPath(ev.Path)
	if ev.Op == driven.FileRemoved {
		fmt.Fprintf(w.out, "%s removed; its source is kept\n", rel)
		return
	}

	stats, err := w.ingest(ctx, ev.Path)
	if err != nil {
		fmt.Fprintf(w.out, "%s: %s\n", rel, formatError(err))
		return
	}
	fmt.Fprintf(w.out, "%s %s: source %s, %d chunks, %d embedded\n",
		rel, ev.Op, stats.SourceID, stats.Chunks, stats.Embedded)
}

func (w *pageWatcher) ingest(ctx context.Context, path string) (*domain.IndexStats, error) {
	// #nosec G304 - path comes from the watched directory
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	page := domain.RawPage{
		URL:      w.pageURL(path),
		Filename: filepath.Base(path),
		MIMEType: normalisers.DetectMIMEType(path),
		Content:  content,
	}

	res, err := ingestService.Ingest(ctx, domain.IngestRequest{
		Key:     watchKey(path),
		BaseURL: page.URL,
		Type:    w.srcType,
		Pages:   []domain.RawPage{page},
	})
	if err != nil {
		return nil, err
	}

	if w.engine == nil || w.engine.Index == nil {
		return &domain.IndexStats{SourceID: res.Source.ID}, nil
	}
	if len(res.StaleChunkIDs) > 0 {
		if err := w.engine.Index.DropChunks(ctx, res.StaleChunkIDs); err != nil {
			return nil, err
		}
	}
	return w.engine.Index.IndexSource(ctx, res.Source.ID)
}

// watchKey identifies the source a watched file maps to.
func watchKey(path string) string {
	return "file:" + path
}

func (w *pageWatcher) relPath(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return path
	}
	return rel
}

// pageURL resolves the file's path inside the watched directory against
// the base URL. Without a base URL pages have no address.
func (w *pageWatcher) pageURL(path string) string {
	if w.base == nil {
		return ""
	}
	rel := filepath.ToSlash(w.relPath(path))
	rel = strings.TrimPrefix(rel, "./")
	return w.base.ResolveReference(&url.URL{Path: rel}).String()
}
