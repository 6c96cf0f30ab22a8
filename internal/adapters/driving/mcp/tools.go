package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the indexed sources"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default from settings)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Query        string `json:"query"`
	Summary      string `json:"summary"`
	TotalResults int    `json:"total_results"`
	BackendUsed  string `json:"backend_used"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "search",
		Description: "Answer a question with a summary of the most relevant indexed content",
	}, s.handleSearch)
}

// handleSearch runs the query pipeline. Failures are returned with their
// error kind so clients can tell configuration problems from outages.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	result, err := s.ports.Query.Query(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("%s: %w", domain.KindOf(err), err)
	}

	output := SearchOutput{
		Query:        result.Query,
		Summary:      result.Summary,
		TotalResults: result.TotalResults,
		BackendUsed:  result.Backend.String(),
	}

	return nil, output, nil
}
