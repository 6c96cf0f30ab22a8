// Package pgvector provides a vector store backed by PostgreSQL with the pgvector extension.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Config holds configuration for the pgvector store.
type Config struct {
	// URL is a postgres:// connection string.
	URL string

	// Table is the table holding vectors (default: chatbot2).
	Table string

	// Dimensions is the vector column size.
	Dimensions int
}

// Store implements driven.VectorStore on a pgvector table with an HNSW cosine index.
type Store struct {
	pool       *pgxpool.Pool
	table      string
	dimensions int
}

var tableNamePattern = regexp.MustCompile(`[^a-z0-9_]+`)

// New connects, enables the vector extension and creates the table when missing.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: pgvector: URL is required", domain.ErrInvalidConfiguration)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: pgvector: dimensions must be positive", domain.ErrInvalidConfiguration)
	}
	table := tableName(cfg.Table)

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: pgvector: parsing URL: %v", domain.ErrInvalidConfiguration, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: pgvector: %v", domain.ErrVectorStoreUnavailable, err)
	}

	s := &Store{pool: pool, table: table, dimensions: cfg.Dimensions}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// tableName lowercases name and replaces anything outside [a-z0-9_].
func tableName(name string) string {
	if name == "" {
		name = domain.DefaultIndexName
	}
	name = tableNamePattern.ReplaceAllString(strings.ToLower(name), "_")
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	return name
}

func schemaStatements(table string, dims int) []string {
	ident := pgx.Identifier{table}.Sanitize()
	indexIdent := pgx.Identifier{table + "_embedding_idx"}.Sanitize()
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id        TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			content   TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, ident, dims),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, indexIdent, ident),
	}
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.table, s.dimensions) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: pgvector: migrating: %v", domain.ErrVectorStoreUnavailable, err)
		}
	}

	// format_type reports "vector(384)" for the embedding column.
	var colType string
	err := s.pool.QueryRow(ctx, `
		SELECT format_type(a.atttypid, a.atttypmod)
		FROM pg_attribute a
		WHERE a.attrelid = $1::regclass AND a.attname = 'embedding'
	`, s.table).Scan(&colType)
	if err != nil {
		return fmt.Errorf("%w: pgvector: reading column type: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if want := fmt.Sprintf("vector(%d)", s.dimensions); colType != want {
		return fmt.Errorf("%w: %w: table %s has %s, expected %s",
			domain.ErrInvalidConfiguration, domain.ErrDimensionMismatch, s.table, colType, want)
	}
	return nil
}

func upsertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (id, source_id, content, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`, pgx.Identifier{table}.Sanitize())
}

func querySQL(table string) string {
	return fmt.Sprintf(`SELECT id, source_id, content, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, id
		LIMIT $2`, pgx.Identifier{table}.Sanitize())
}

// Upsert writes all records in one batch.
func (s *Store) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Values) != s.dimensions {
			return fmt.Errorf("%w: record %s has %d values, store expects %d",
				domain.ErrInvalidParameter, r.ID, len(r.Values), s.dimensions)
		}
	}

	sql := upsertSQL(s.table)
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(sql, r.ID, r.Metadata.SourceID, r.Metadata.Content, pgvector.NewVector(r.Values))
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%w: pgvector: upsert: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Query ranks rows by cosine distance and reports 1 minus the distance as score.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be at least 1, got %d", domain.ErrInvalidParameter, topK)
	}
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d values, store expects %d",
			domain.ErrInvalidParameter, len(vector), s.dimensions)
	}

	rows, err := s.pool.Query(ctx, querySQL(s.table), pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: pgvector: query: %v", domain.ErrVectorStoreUnavailable, err)
	}
	defer rows.Close()

	matches := []domain.VectorMatch{}
	for rows.Next() {
		var m domain.VectorMatch
		if err := rows.Scan(&m.ID, &m.Metadata.SourceID, &m.Metadata.Content, &m.Score); err != nil {
			return nil, fmt.Errorf("%w: pgvector: scanning match: %v", domain.ErrVectorStoreUnavailable, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: pgvector: iterating matches: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return matches, nil
}

func deleteSQL(table string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, pgx.Identifier{table}.Sanitize())
}

// Delete removes the rows with the given IDs in one statement.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, deleteSQL(s.table), ids); err != nil {
		return fmt.Errorf("%w: pgvector: delete: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Reset truncates the table.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE "+pgx.Identifier{s.table}.Sanitize()); err != nil {
		return fmt.Errorf("%w: pgvector: truncate: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Count returns the row count.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+pgx.Identifier{s.table}.Sanitize()).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: pgvector: count: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return n, nil
}

// Dimensions returns the vector column size.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// Ping checks the pool can reach the server.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: pgvector: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
