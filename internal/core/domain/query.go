package domain

// PipelineStage names a step of the retrieval-summarization pipeline.
type PipelineStage string

// Pipeline stages in execution order. Done and NoResults are terminal.
const (
	StageEmbedding   PipelineStage = "embedding"
	StageRetrieving  PipelineStage = "retrieving"
	StageDeduping    PipelineStage = "deduping"
	StagePrompting   PipelineStage = "prompting"
	StageSummarizing PipelineStage = "summarizing"
	StageDone        PipelineStage = "done"
	StageNoResults   PipelineStage = "no_results"
)

// String returns the string representation.
func (s PipelineStage) String() string {
	return string(s)
}

// IsTerminal returns true for stages that end a request successfully.
func (s PipelineStage) IsTerminal() bool {
	return s == StageDone || s == StageNoResults
}

// NoResultsSummary is returned when retrieval yields nothing usable.
const NoResultsSummary = "No relevant results found."

// QueryResult is the answer to one query.
type QueryResult struct {
	Query   string `json:"query"`
	Summary string `json:"summary"`

	// TotalResults is the number of matches the vector store returned.
	TotalResults int `json:"total_results"`

	// Backend is the summarizer that produced Summary. Empty for no results.
	Backend SummarizerBackend `json:"backend_used,omitempty"`

	Stage PipelineStage `json:"stage"`

	// Sources are the distinct source IDs of the matches, in match order.
	Sources []string `json:"sources,omitempty"`
}

// HasResults returns true if the query produced a summary.
func (r *QueryResult) HasResults() bool {
	return r.Stage == StageDone
}
