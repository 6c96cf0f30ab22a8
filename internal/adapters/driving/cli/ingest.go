package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// stdinArg reads a page from standard input.
const stdinArg = "-"

var (
	ingestBaseURL string
	ingestType    string
	ingestMIME    string
	ingestIndex   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file...|->",
	Short: "Ingest captured pages as one source",
	Long: `Reads HTML, markdown or plain text files and stores them as a single source.
The first file becomes the source's home page. Use "-" to read one page from
standard input; its type is taken from --mime.

Pages are extracted, split into chunks and stored without embeddings. Pass
--index to embed them straight away, or run "sercha-rag index" later.

Examples:
  sercha-rag ingest --base-url https://acme.test index.html about.html
  curl -s https://acme.test | sercha-rag ingest --base-url https://acme.test -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestBaseURL, "base-url", "", "URL the pages were captured from")
	ingestCmd.Flags().StringVar(&ingestType, "type", "website", "free-form source type label")
	ingestCmd.Flags().StringVar(&ingestMIME, "mime", "text/html", "MIME type of the page read from stdin")
	ingestCmd.Flags().BoolVar(&ingestIndex, "index", false, "index the source after ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	pages, err := readPages(cmd.InOrStdin(), args, ingestBaseURL, ingestMIME)
	if err != nil {
		return err
	}

	res, err := ingestService.Ingest(cmd.Context(), domain.IngestRequest{
		BaseURL: ingestBaseURL,
		Type:    ingestType,
		Pages:   pages,
	})
	if err != nil {
		return err
	}
	source := res.Source

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested source %s (%s): %d pages, %d internal links\n",
		source.ID, source.DisplayName(), source.PageCount, len(source.InternalLinks))

	if !ingestIndex {
		return nil
	}
	return indexIngested(cmd.Context(), cmd, source.ID)
}

func indexIngested(ctx context.Context, cmd *cobra.Command, sourceID string) error {
	engine, err := openEngine(ctx, false)
	if err != nil {
		return err
	}
	defer closeEngine(engine)

	stats, err := engine.Index.IndexSource(ctx, sourceID)
	if err != nil {
		return err
	}
	printIndexStats(cmd, []domain.IndexStats{*stats})
	return printVectorCount(cmd, engine)
}

// readPages loads each argument as a raw page. With a base URL the first
// page is addressed by it and later pages by their file name relative to it.
func readPages(stdin io.Reader, args []string, baseURL, stdinMIME string) ([]domain.RawPage, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	pages := make([]domain.RawPage, 0, len(args))
	usedStdin := false
	for i, arg := range args {
		page := domain.RawPage{}
		if arg == stdinArg {
			if usedStdin {
				return nil, fmt.Errorf("%w: stdin can only be read once", domain.ErrInvalidParameter)
			}
			usedStdin = true
			page.Content, err = io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			page.MIMEType = stdinMIME
		} else {
			// #nosec G304 - path is supplied by the user on the command line
			page.Content, err = os.ReadFile(arg)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", arg, err)
			}
			page.Filename = filepath.Base(arg)
		}
		page.URL = pageURL(base, page.Filename, i)
		pages = append(pages, page)
	}
	return pages, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q must be absolute", domain.ErrInvalidParameter, raw)
	}
	return u, nil
}

func pageURL(base *url.URL, filename string, index int) string {
	if base == nil {
		return ""
	}
	if index == 0 || filename == "" {
		return base.String()
	}
	return base.ResolveReference(&url.URL{Path: filename}).String()
}
