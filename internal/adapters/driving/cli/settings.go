package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const notSet = "(not set)"

var errNoSettingsService = errors.New("settings service not configured")

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, summarizer backend and vector store.

Use subcommands to configure one component or run the interactive wizard.`,
	RunE: withSettings(showSettings),
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  withSettings(showSettings),
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure every component step by step.`,
	RunE:  withSettings(runWizard),
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the provider that turns chunks and questions into vectors.

Changing the model may change the vector size. The vector store dimensions
follow the model when its size is known.`,
	RunE: withPrompter(askEmbedding),
}

var settingsSummarizerCmd = &cobra.Command{
	Use:   "summarizer",
	Short: "Configure summarizer backend",
	Long:  `Configure the language model that writes answers from retrieved context.`,
	RunE:  withPrompter(askSummarizer),
}

var settingsVectorStoreCmd = &cobra.Command{
	Use:   "vector-store",
	Short: "Configure vector store",
	Long: `Configure where chunk vectors are stored and searched.

Available stores:
  memory    - In-process index, optionally persisted to a JSON snapshot
  pinecone  - Pinecone serverless index (requires API key)
  redis     - Redis Stack vector search (requires URL)
  pgvector  - PostgreSQL with pgvector (requires URL)`,
	RunE: withPrompter(askVectorStore),
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsWizardCmd,
		settingsEmbeddingCmd, settingsSummarizerCmd, settingsVectorStoreCmd)
	rootCmd.AddCommand(settingsCmd)
}

// withSettings fails early when no settings service has been wired.
func withSettings(run func(cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errNoSettingsService
		}
		return run(cmd)
	}
}

func withPrompter(ask func(p *prompter) error) func(*cobra.Command, []string) error {
	return withSettings(func(cmd *cobra.Command) error {
		return ask(newPrompter(cmd))
	})
}

// field is one "Label: value" row of the settings report. Rows with an
// empty value are omitted.
type field struct {
	label string
	value string
}

func printSection(cmd *cobra.Command, title string, fields ...field) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s]\n", title)
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(out, "  %s: %s\n", f.label, f.value)
		}
	}
	fmt.Fprintln(out)
}

// when returns value if cond holds and "" otherwise.
func when(cond bool, value string) string {
	if cond {
		return value
	}
	return ""
}

func showSettings(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	emb, sum, vs := settings.Embedding, settings.Summarizer, settings.VectorStore

	fmt.Fprintln(out, "Current Settings")
	fmt.Fprintln(out, "================")
	fmt.Fprintln(out)

	printSection(cmd, "Embedding",
		field{"Provider", emb.Provider.Description()},
		field{"Model", emb.Model},
		field{"Base URL", emb.BaseURL},
		field{"API Key", when(emb.Provider.RequiresAPIKey(), displayKey(emb.APIKey))},
		field{"Rate limit", when(emb.RequestsPerSecond > 0, fmt.Sprintf("%g req/s", emb.RequestsPerSecond))},
		field{"Status", configuredStatus(emb.IsConfigured())},
	)
	printSection(cmd, "Summarizer",
		field{"Backend", sum.Backend.Description()},
		field{"Model", sum.Model},
		field{"Base URL", sum.BaseURL},
		field{"API Key", when(sum.Backend.RequiresAPIKey(), displayKey(sum.APIKey))},
		field{"Max tokens", strconv.Itoa(sum.MaxTokens)},
		field{"Status", configuredStatus(sum.IsConfigured())},
	)
	printSection(cmd, "Vector Store",
		field{"Provider", vs.Provider.Description()},
		field{"Index", vs.Index},
		field{"Namespace", vs.Namespace},
		field{"Dimensions", strconv.Itoa(vs.Dimensions)},
		field{"URL", when(vs.Provider.RequiresURL(), displayValue(redactURL(vs.URL)))},
		field{"API Key", when(vs.Provider.RequiresAPIKey(), displayKey(vs.APIKey))},
		field{"Placement", when(vs.Provider.RequiresAPIKey(), vs.Cloud+"/"+vs.Region)},
		field{"Snapshot", when(vs.Provider == domain.VectorStoreMemory, vs.Snapshot)},
		field{"Status", configuredStatus(vs.IsConfigured())},
	)
	printSection(cmd, "Pipeline",
		field{"Top K", strconv.Itoa(settings.Pipeline.TopK)},
		field{"Vector store timeout", settings.Pipeline.VectorStoreTimeout.String()},
		field{"Summarizer timeout", settings.Pipeline.SummarizerTimeout.String()},
		field{"Chunk size", fmt.Sprintf("%d (overlap %d)", settings.Chunker.ChunkSize, settings.Chunker.Overlap)},
	)

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
		fmt.Fprintln(out, "Run 'sercha-rag settings wizard' to fix configuration issues.")
		return nil
	}
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func runWizard(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Sercha RAG Settings Wizard")
	fmt.Fprintln(out, "==========================")
	fmt.Fprintln(out)

	p := newPrompter(cmd)
	steps := []struct {
		title string
		ask   func(*prompter) error
	}{
		{"Embedding Provider", askEmbedding},
		{"Summarizer Backend", askSummarizer},
		{"Vector Store", askVectorStore},
	}
	for i, step := range steps {
		heading := fmt.Sprintf("Step %d: %s", i+1, step.title)
		fmt.Fprintln(out, heading)
		fmt.Fprintln(out, strings.Repeat("-", len(heading)))
		if err := step.ask(p); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "Configuration Complete!")
	fmt.Fprintln(out, "=======================")
	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
		return nil
	}
	fmt.Fprintln(out, "All settings are valid and saved.")
	return nil
}

func askEmbedding(p *prompter) error {
	provider := choose(p, "Select Embedding Provider", domain.AllEmbeddingProviders())
	model := p.line("Enter model name", domain.DefaultEmbeddingModels()[provider])
	apiKey := p.secretIf(provider.RequiresAPIKey())

	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	if err := p.validate(settingsService.ValidateEmbeddingConfig); err != nil {
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	fmt.Fprintf(p.cmd.OutOrStdout(), "Embedding provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}

func askSummarizer(p *prompter) error {
	backend := choose(p, "Select Summarizer Backend", domain.AllSummarizerBackends())
	model := p.line("Enter model name", domain.DefaultSummarizerModels()[backend])
	apiKey := p.secretIf(backend.RequiresAPIKey())

	if err := settingsService.SetSummarizer(backend, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure summarizer: %w", err)
	}
	if err := p.validate(settingsService.ValidateSummarizerConfig); err != nil {
		return fmt.Errorf("summarizer configuration validation failed: %w", err)
	}
	fmt.Fprintf(p.cmd.OutOrStdout(), "Summarizer configured: %s (%s)\n\n", backend.Description(), model)
	return nil
}

// askVectorStore leaves blank answers empty so the service keeps its
// defaults and environment fallbacks.
func askVectorStore(p *prompter) error {
	vs := domain.VectorStoreSettings{
		Provider: choose(p, "Select Vector Store", domain.AllVectorStoreProviders()),
	}
	vs.Index = p.optional(fmt.Sprintf("Enter index name [%s]", settingsService.GetDefaults().VectorStore.Index))

	switch {
	case vs.Provider.RequiresURL():
		vs.URL = p.optional("Enter connection URL (blank to use the environment)")
	case vs.Provider.RequiresAPIKey():
		vs.APIKey = p.secretIf(true)
		vs.Namespace = p.optional("Enter namespace (optional)")
	case vs.Provider == domain.VectorStoreMemory:
		vs.Snapshot = p.optional("Enter snapshot file (optional)")
	}

	if err := settingsService.SetVectorStore(vs); err != nil {
		return fmt.Errorf("failed to configure vector store: %w", err)
	}
	fmt.Fprintf(p.cmd.OutOrStdout(), "Vector store configured: %s\n\n", vs.Provider.Description())
	return nil
}

// prompter asks questions on the command's input and output streams.
type prompter struct {
	cmd    *cobra.Command
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, reader: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) read() string {
	input, _ := p.reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// line asks for a value, returning def for a blank answer.
func (p *prompter) line(label, def string) string {
	fmt.Fprintf(p.cmd.OutOrStdout(), "%s [%s]: ", label, def)
	if v := p.read(); v != "" {
		return v
	}
	return def
}

func (p *prompter) optional(label string) string {
	fmt.Fprintf(p.cmd.OutOrStdout(), "%s: ", label)
	return p.read()
}

// secretIf asks for an API key when needed. The key is read without echo
// on a terminal.
func (p *prompter) secretIf(needed bool) string {
	if !needed {
		return ""
	}
	fmt.Fprint(p.cmd.OutOrStdout(), "Enter API key (blank to use the environment): ")
	key := readPassword(p.cmd.InOrStdin(), p.reader)
	fmt.Fprintln(p.cmd.OutOrStdout())
	return key
}

func (p *prompter) validate(check func() error) error {
	out := p.cmd.OutOrStdout()
	fmt.Fprint(out, "Validating configuration... ")
	if err := check(); err != nil {
		fmt.Fprintf(out, "FAILED: %v\n", err)
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

// choose lists options by description and returns the picked one. Invalid
// or blank answers pick the first.
func choose[T interface{ Description() string }](p *prompter, title string, options []T) T {
	out := p.cmd.OutOrStdout()
	fmt.Fprintln(out, title)
	for i, o := range options {
		fmt.Fprintf(out, "  %d. %s\n", i+1, o.Description())
	}
	fmt.Fprint(out, "\nEnter choice [1]: ")
	return options[parseChoice(p.read(), len(options), 1)-1]
}

func parseChoice(input string, maxVal, defaultVal int) int {
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when in is a terminal,
// otherwise it reads a plain line from reader.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if secret, err := term.ReadPassword(int(f.Fd())); err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func displayKey(key string) string {
	if key == "" {
		return notSet
	}
	return maskAPIKey(key)
}

func displayValue(v string) string {
	if v == "" {
		return notSet
	}
	return v
}

// redactURL hides the password in a connection string.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
