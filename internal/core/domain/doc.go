// Package domain defines the core business entities for sercha-rag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Source, Page, Media: An ingested site and what was extracted from it
//   - Chunk: A bounded text window, the unit of embedding
//   - VectorRecord, VectorMatch: What is written to and read from the vector index
//   - QueryResult, PipelineStage: The retrieval-summarization pipeline outcome
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
