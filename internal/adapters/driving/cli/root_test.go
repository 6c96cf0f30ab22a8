package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestRootCmd_PersistentFlags(t *testing.T) {
	v := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config-dir"))
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"ingest", "index", "reindex", "search", "sources", "settings", "watch", "tui", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestSetServices_NilClearsServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	SetServices(nil)

	assert.Nil(t, settingsService)
	assert.Nil(t, sourceService)
	assert.Nil(t, ingestService)
	assert.Nil(t, engineFactory)
}

func TestBootstrap_ReceivesOptions(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer func() { configDir, ephemeral = "", false }()

	var got Options
	SetBootstrap(func(_ context.Context, opts Options) (*Services, error) {
		got = opts
		return &Services{Source: ts.sources}, nil
	})

	out, err := executeCommand("--config-dir", "/tmp/sercha-test", "--ephemeral", "sources", "list")

	require.NoError(t, err)
	assert.Equal(t, Options{ConfigDir: "/tmp/sercha-test", Ephemeral: true}, got)
	assert.Contains(t, out, "Acme")
}

func TestBootstrap_ErrorStopsCommand(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	SetBootstrap(func(context.Context, Options) (*Services, error) {
		return nil, fmt.Errorf("%w: bad config", domain.ErrInvalidConfiguration)
	})

	_, err := executeCommand("sources", "list")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
}

func TestExecute_ClosesServicesAndPrintsKind(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	closed := false
	SetBootstrap(func(context.Context, Options) (*Services, error) {
		return &Services{Close: func() error {
			closed = true
			return nil
		}}, nil
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sources", "list"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background())

	require.Error(t, err)
	assert.True(t, closed)
	assert.Contains(t, buf.String(), "Error (internal): source service not configured")
}

func TestFormatError(t *testing.T) {
	err := fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidParameter)

	assert.Equal(t, "Error (invalid_parameter): invalid parameter: top_k must be positive", formatError(err))
}

func TestCloseEngine_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		closeEngine(nil)
		closeEngine(&Engine{})
	})
}
