package domain

import "time"

// Chunk is a bounded text window cut from a page.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// SourceID is a weak reference to the owning Source.
	SourceID string

	// PageID links to the Page the text was cut from.
	PageID string

	// Content is the text of this chunk.
	Content string

	// Position is the ordinal position within the source.
	Position int

	// Embedding is the vector representation. Nil until indexed.
	// Once set it is only replaced by a forced reindex.
	Embedding []float32

	CreatedAt time.Time
}

// HasEmbedding returns true once the chunk has been embedded.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// VectorRecordPrefix prefixes chunk IDs in the vector index.
const VectorRecordPrefix = "chunk_"

// VectorRecordID derives the vector index ID for a chunk.
func VectorRecordID(chunkID string) string {
	return VectorRecordPrefix + chunkID
}

// VectorMetadata is stored alongside each vector.
type VectorMetadata struct {
	SourceID string `json:"source_id"`
	Content  string `json:"content"`
}

// VectorRecord is the unit written to the vector index.
type VectorRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata VectorMetadata `json:"metadata"`
}

// NewVectorRecord builds the vector record for an embedded chunk.
func NewVectorRecord(c *Chunk) VectorRecord {
	return VectorRecord{
		ID:     VectorRecordID(c.ID),
		Values: c.Embedding,
		Metadata: VectorMetadata{
			SourceID: c.SourceID,
			Content:  c.Content,
		},
	}
}

// VectorMatch is one nearest-neighbour result.
type VectorMatch struct {
	ID string

	// Score is cosine similarity; higher is more similar.
	Score float64

	Metadata VectorMetadata
}

// IndexStats summarises one IndexSource run.
type IndexStats struct {
	SourceID string `json:"source_id"`
	Chunks   int    `json:"chunks"`
	Embedded int    `json:"embedded"`
	Skipped  int    `json:"skipped"`
	Upserted int    `json:"upserted"`
}

// ReindexOptions controls a full rebuild of the vector index.
type ReindexOptions struct {
	// Force clears stored embeddings so every chunk is embedded again.
	Force bool
}
