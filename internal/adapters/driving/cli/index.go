package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	indexAll     bool
	reindexForce bool
)

var indexCmd = &cobra.Command{
	Use:   "index [source-id]",
	Short: "Embed and upsert the chunks of ingested sources",
	Long: `Embeds every stored chunk that has no embedding yet and upserts all embedded
chunks of the source into the vector store. Use --all to index every source.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector store from stored chunks",
	Long: `Clears the vector store and upserts every stored chunk again. With --force
all embeddings are discarded and recomputed, which is needed after changing
the embedding model.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexAll, "all", false, "index every source")
	reindexCmd.Flags().BoolVar(&reindexForce, "force", false, "recompute all embeddings")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(reindexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !indexAll {
		return fmt.Errorf("%w: provide a source ID or --all", domain.ErrInvalidParameter)
	}
	if len(args) > 0 && indexAll {
		return fmt.Errorf("%w: a source ID and --all are mutually exclusive", domain.ErrInvalidParameter)
	}

	engine, err := openEngine(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer closeEngine(engine)

	if indexAll {
		stats, err := engine.Index.IndexAll(cmd.Context())
		printIndexStats(cmd, stats)
		if err != nil {
			return err
		}
		return printVectorCount(cmd, engine)
	}

	stats, err := engine.Index.IndexSource(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printIndexStats(cmd, []domain.IndexStats{*stats})
	return printVectorCount(cmd, engine)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	engine, err := openEngine(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer closeEngine(engine)

	stats, err := engine.Index.Reindex(cmd.Context(), domain.ReindexOptions{Force: reindexForce})
	printIndexStats(cmd, stats)
	if err != nil {
		return err
	}
	return printVectorCount(cmd, engine)
}

func printIndexStats(cmd *cobra.Command, stats []domain.IndexStats) {
	out := cmd.OutOrStdout()
	if len(stats) == 0 {
		fmt.Fprintln(out, "Nothing to index.")
		return
	}
	for _, s := range stats {
		fmt.Fprintf(out, "%s: %d chunks, %d embedded, %d skipped, %d upserted\n",
			s.SourceID, s.Chunks, s.Embedded, s.Skipped, s.Upserted)
	}
}

// printVectorCount reports how many records the vector store holds after a run.
func printVectorCount(cmd *cobra.Command, engine *Engine) error {
	n, err := engine.Index.VectorCount(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Vector store holds %d records\n", n)
	return nil
}
