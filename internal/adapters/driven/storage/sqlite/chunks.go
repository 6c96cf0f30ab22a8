package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.ChunkStore = (*chunkStore)(nil)

// chunkStore keeps chunks with their last known embedding, packed as a
// little-endian float32 blob.
type chunkStore struct {
	db *sql.DB
}

const (
	selectChunk = `SELECT id, source_id, page_id, content, position, embedding, created_at FROM chunks`

	insertChunk = `INSERT INTO chunks (id, source_id, page_id, content, position, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
)

// GetChunks returns the chunks of a source by position. An unknown source
// is ErrNotFound; a known source without chunks gives an empty slice.
func (s *chunkStore) GetChunks(ctx context.Context, sourceID string) ([]domain.Chunk, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sources WHERE id = ?`, sourceID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("source %s: %w", sourceID, domain.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("look up source %s: %w", sourceID, err)
	}

	chunks, err := selectAll(ctx, s.db, scanChunk, selectChunk+` WHERE source_id = ? ORDER BY position`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get chunks of %s: %w", sourceID, err)
	}
	return chunks, nil
}

func (s *chunkStore) SaveEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	res, err := s.db.ExecContext(ctx, `UPDATE chunks SET embedding = ? WHERE id = ?`,
		encodeEmbedding(embedding), chunkID)
	if err != nil {
		return fmt.Errorf("save embedding of %s: %w", chunkID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	return nil
}

// ClearEmbeddings drops every stored embedding, used before a full reindex.
func (s *chunkStore) ClearEmbeddings(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE chunks SET embedding = NULL`); err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}
	return nil
}

func scanChunk(row rowScanner) (domain.Chunk, error) {
	var (
		c       domain.Chunk
		blob    []byte
		created sql.NullTime
	)
	err := row.Scan(&c.ID, &c.SourceID, &c.PageID, &c.Content, &c.Position, &blob, &created)
	c.Embedding = decodeEmbedding(blob)
	c.CreatedAt = timeFrom(created)
	return c, err
}
