package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// maxListedPages caps the page list printed by sources show.
const maxListedPages = 20

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect ingested sources",
	Long:  `List ingested sources and show the pages, chunks and media stored for one.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all ingested sources",
	Args:  cobra.NoArgs,
	RunE:  runSourcesList,
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show <source-id>",
	Short: "Show details for one source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesShow,
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesShowCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sources, err := sourceService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		fmt.Fprintln(out, "No sources ingested. Run 'sercha-rag ingest' to add one.")
		return nil
	}

	fmt.Fprintf(out, "Sources (%d):\n", len(sources))
	for i := range sources {
		s := &sources[i]
		fmt.Fprintf(out, "  %s  %-8s %3d pages  %s\n", s.ID, s.Type, s.PageCount, s.DisplayName())
	}
	return nil
}

func runSourcesShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	ctx := cmd.Context()
	id := args[0]

	source, err := sourceService.Get(ctx, id)
	if err != nil {
		return err
	}
	pages, err := sourceService.Pages(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load pages: %w", err)
	}
	chunks, err := sourceService.Chunks(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}
	media, err := sourceService.Media(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load media: %w", err)
	}

	embedded := 0
	for i := range chunks {
		if chunks[i].HasEmbedding() {
			embedded++
		}
	}

	fmt.Fprintf(out, "Source: %s\n", source.DisplayName())
	fmt.Fprintf(out, "  ID: %s\n", source.ID)
	fmt.Fprintf(out, "  Type: %s\n", source.Type)
	if source.BaseURL != "" {
		fmt.Fprintf(out, "  Base URL: %s\n", source.BaseURL)
	}
	fmt.Fprintf(out, "  Ingested: %s\n", source.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "  Pages: %d\n", len(pages))
	fmt.Fprintf(out, "  Chunks: %d (%d embedded)\n", len(chunks), embedded)
	fmt.Fprintf(out, "  Internal links: %d\n", len(source.InternalLinks))
	fmt.Fprintf(out, "  Media: %d\n", len(media))

	if len(pages) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Pages:")
		for i, p := range pages {
			if i == maxListedPages {
				fmt.Fprintf(out, "  ... and %d more\n", len(pages)-maxListedPages)
				break
			}
			fmt.Fprintf(out, "  %s\n", displayValue(p.URL))
		}
	}

	if len(media) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Media:")
		for _, m := range media {
			if m.MetaInfo != "" {
				fmt.Fprintf(out, "  [%s] %s (%s)\n", m.Type, m.URL, m.MetaInfo)
				continue
			}
			fmt.Fprintf(out, "  [%s] %s\n", m.Type, m.URL)
		}
	}

	if embedded < len(chunks) {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Run 'sercha-rag index %s' to embed the remaining chunks.\n", source.ID)
	}
	return nil
}
