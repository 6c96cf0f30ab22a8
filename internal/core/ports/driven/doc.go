// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Normaliser: Extracts text, links and media from a raw page
//   - NormaliserRegistry: Selects appropriate normaliser
//   - SourceStore: Source, page and media persistence
//   - ChunkStore: Chunk and embedding persistence
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//   - PostProcessorPipeline: Turns a stored page into chunks
//
// # Query Pipeline Interfaces
//
// These are built at startup from configuration and checked with Ping:
//
//   - EmbeddingService: Turns text into fixed-dimension vectors.
//   - VectorStore: Stores vectors and answers nearest-neighbour queries.
//   - CompletionBackend: Turns a prompt into a summary.
//
// # Optional Interfaces
//
//   - FileWatcher: Reports file changes for the watch command
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
