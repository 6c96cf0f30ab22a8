package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Answer a question from indexed pages",
	Long: `Embeds the question, retrieves the closest chunks from the vector store
and summarizes them with the configured summarizer backend.

Words after the command are joined into a single question.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of matches to retrieve (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	engine, err := openEngine(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer closeEngine(engine)

	result, err := engine.Query.Query(cmd.Context(), query, searchTopK)
	if err != nil {
		return err
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}
	outputSearchText(cmd, result)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, result *domain.QueryResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, result *domain.QueryResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Summary)
	if !result.HasResults() {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Backend: %s  Matches: %d\n", result.Backend, result.TotalResults)
	if len(result.Sources) > 0 {
		fmt.Fprintf(out, "Sources: %s\n", strings.Join(result.Sources, ", "))
	}
}
