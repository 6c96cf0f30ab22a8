// Package cli provides the cobra command tree for sercha-rag.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// annotationStandalone marks commands that run without services.
const annotationStandalone = "standalone"

// Engine holds the services that need the embedding model and vector store.
type Engine struct {
	Query driving.QueryService
	Index driving.IndexService

	// Close releases the model clients and the vector store.
	Close func() error
}

// EngineFactory builds an Engine. The summarizer is only created when
// withSummarizer is set, so indexing works without one.
type EngineFactory func(ctx context.Context, withSummarizer bool) (*Engine, error)

// PromptReloader is the prompt store surface the watch command uses.
type PromptReloader interface {
	Reload()
	Dir() string
}

// Services are the dependencies the commands run against.
type Services struct {
	Settings driving.SettingsService
	Source   driving.SourceService
	Ingest   driving.IngestService
	Prompts  PromptReloader
	Engine   EngineFactory

	// Close releases stores opened by the bootstrap. May be nil.
	Close func() error
}

// Options are the global flags the bootstrap needs.
type Options struct {
	// ConfigDir is the configuration directory. Empty means the default
	// under the user's home.
	ConfigDir string

	// Ephemeral keeps sources and chunks in memory for the life of the process.
	Ephemeral bool
}

// Bootstrap builds Services from the global options.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	settingsService driving.SettingsService
	sourceService   driving.SourceService
	ingestService   driving.IngestService
	promptStore     PromptReloader
	engineFactory   EngineFactory
	closeServices   func() error

	bootstrap Bootstrap
)

var (
	verbose   bool
	configDir string
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Retrieval-augmented answers over ingested web pages",
	Long: `sercha-rag ingests captured web pages, indexes their chunks in a vector
store and answers questions with a summary generated from the closest matches.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.sercha-rag)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep sources and chunks in memory instead of the metadata database")
}

// SetBootstrap registers the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices injects services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	settingsService = s.Settings
	sourceService = s.Source
	ingestService = s.Ingest
	promptStore = s.Prompts
	engineFactory = s.Engine
	closeServices = s.Close
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationStandalone] == "true" || bootstrap == nil {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), Options{ConfigDir: configDir, Ephemeral: ephemeral})
	if err != nil {
		return err
	}
	SetServices(svc)
	return nil
}

// Execute runs the command tree and prints any failure with its error kind.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)

	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
		closeServices = nil
	}

	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), formatError(err))
	}
	return err
}

func formatError(err error) string {
	return fmt.Sprintf("Error (%s): %v", domain.KindOf(err), err)
}

// openEngine builds the engine or explains why it cannot be built.
func openEngine(ctx context.Context, withSummarizer bool) (*Engine, error) {
	if engineFactory == nil {
		return nil, errors.New("query engine not configured")
	}
	return engineFactory(ctx, withSummarizer)
}

// closeEngine releases e, logging failures.
func closeEngine(e *Engine) {
	if e == nil || e.Close == nil {
		return
	}
	if err := e.Close(); err != nil {
		logger.Warn("closing engine: %v", err)
	}
}
