package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Adapters wrap these with context so callers can match them with errors.Is.
var (
	// ErrInvalidParameter indicates a caller supplied an argument outside its
	// allowed range, such as a chunk overlap not smaller than the chunk size.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEmbeddingUnavailable indicates the embedding model could not be
	// reached or failed during inference. Fatal at startup.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector index service is
	// unreachable, erroring, or did not answer before the call timeout.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrSummarizationFailed indicates the summarization backend call failed,
	// timed out, or returned no usable content.
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrInvalidConfiguration indicates a configuration value is unrecognised
	// or inconsistent, such as an unknown summarizer backend.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNotFound indicates a referenced source, chunk, or page does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDimensionMismatch indicates the embedder and the vector store disagree
	// on vector dimensionality. Always reported together with ErrInvalidConfiguration.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ErrorKind is a stable, machine-readable name for a class of failure.
type ErrorKind string

// Error kinds surfaced at the pipeline boundary.
const (
	KindInvalidParameter       ErrorKind = "invalid_parameter"
	KindEmbeddingUnavailable   ErrorKind = "embedding_unavailable"
	KindVectorStoreUnavailable ErrorKind = "vector_store_unavailable"
	KindSummarizationFailed    ErrorKind = "summarization_failed"
	KindInvalidConfiguration   ErrorKind = "invalid_configuration"
	KindNotFound               ErrorKind = "not_found"
	KindInternal               ErrorKind = "internal"
)

// KindOf classifies err into an ErrorKind. Nil yields an empty kind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidParameter):
		return KindInvalidParameter
	case errors.Is(err, ErrEmbeddingUnavailable):
		return KindEmbeddingUnavailable
	case errors.Is(err, ErrVectorStoreUnavailable):
		return KindVectorStoreUnavailable
	case errors.Is(err, ErrSummarizationFailed):
		return KindSummarizationFailed
	case errors.Is(err, ErrInvalidConfiguration), errors.Is(err, ErrDimensionMismatch):
		return KindInvalidConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// PipelineError records the query pipeline stage at which a request failed.
type PipelineError struct {
	Stage PipelineStage
	Err   error
}

// Error implements error.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying error so errors.Is matches taxonomy sentinels.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Kind returns the error kind of the underlying failure.
func (e *PipelineError) Kind() ErrorKind {
	return KindOf(e.Err)
}
