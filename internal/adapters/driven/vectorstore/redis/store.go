// Package redis provides a vector store backed by Redis Stack (RediSearch).
package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// HNSW build parameters.
const (
	defaultEFConstruction = 200
	defaultM              = 16
)

// Hash fields.
const (
	fieldVector   = "vector"
	fieldSourceID = "source_id"
	fieldContent  = "content"
	fieldDistance = "distance"
)

// Config holds configuration for the Redis vector store.
type Config struct {
	// URL is a redis:// or rediss:// connection URL.
	URL string

	// Index is the RediSearch index name. Keys are prefixed "<index>:".
	Index string

	// Dimensions is the vector size of the index.
	Dimensions int
}

// Store implements driven.VectorStore on a RediSearch HNSW index.
type Store struct {
	client     *redis.Client
	index      string
	prefix     string
	dimensions int
}

// New connects to Redis and creates the index when it does not exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: redis: URL is required", domain.ErrInvalidConfiguration)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: redis: dimensions must be positive", domain.ErrInvalidConfiguration)
	}
	if cfg.Index == "" {
		cfg.Index = domain.DefaultIndexName
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: redis: parsing URL: %v", domain.ErrInvalidConfiguration, err)
	}
	// FT.* replies are parsed in their RESP2 array shape.
	opts.Protocol = 2

	s := &Store{
		client:     redis.NewClient(opts),
		index:      cfg.Index,
		prefix:     cfg.Index + ":",
		dimensions: cfg.Dimensions,
	}

	if err := s.Ping(ctx); err != nil {
		s.client.Close()
		return nil, err
	}
	if err := s.ensureIndex(ctx); err != nil {
		s.client.Close()
		return nil, err
	}
	return s, nil
}

// ensureIndex creates the HNSW index if FT.INFO does not find it, and
// verifies its dimension otherwise.
func (s *Store) ensureIndex(ctx context.Context) error {
	info, err := s.client.Do(ctx, "FT.INFO", s.index).Result()
	if err == nil {
		if dim, ok := parseInfoDimension(info); ok && dim != s.dimensions {
			return fmt.Errorf("%w: %w: redis index %s has %d dimensions, expected %d",
				domain.ErrInvalidConfiguration, domain.ErrDimensionMismatch, s.index, dim, s.dimensions)
		}
		return nil
	}
	if !isUnknownIndex(err) {
		return fmt.Errorf("%w: redis: FT.INFO: %v", domain.ErrVectorStoreUnavailable, err)
	}

	if err := s.client.Do(ctx, createIndexArgs(s.index, s.prefix, s.dimensions)...).Err(); err != nil {
		return fmt.Errorf("%w: redis: FT.CREATE: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

func createIndexArgs(index, prefix string, dims int) []any {
	return []any{
		"FT.CREATE", index,
		"ON", "HASH",
		"PREFIX", "1", prefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dims),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(defaultEFConstruction),
		"M", strconv.Itoa(defaultM),
		fieldSourceID, "TAG",
		fieldContent, "TEXT",
	}
}

func isUnknownIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}

// Upsert writes every record with HSET in one pipeline.
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

	pipe := s.client.Pipeline()
	for _, r := range records {
		pipe.HSet(ctx, s.prefix+r.ID,
			fieldVector, encodeVector(r.Values),
			fieldSourceID, r.Metadata.SourceID,
			fieldContent, r.Metadata.Content,
		)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: redis: upsert: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Query runs a KNN search. Scores are 1 minus the cosine distance Redis reports.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be at least 1, got %d", domain.ErrInvalidParameter, topK)
	}
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d values, store expects %d",
			domain.ErrInvalidParameter, len(vector), s.dimensions)
	}

	result, err := s.client.Do(ctx, searchArgs(s.index, encodeVector(vector), topK)...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis: FT.SEARCH: %v", domain.ErrVectorStoreUnavailable, err)
	}

	matches, err := parseSearchResults(result, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: redis: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return matches, nil
}

func knnQuery(topK int) string {
	return fmt.Sprintf("*=>[KNN %d @%s $vec AS %s]", topK, fieldVector, fieldDistance)
}

func searchArgs(index string, vec []byte, topK int) []any {
	return []any{
		"FT.SEARCH", index, knnQuery(topK),
		"PARAMS", "2", "vec", vec,
		"SORTBY", fieldDistance, "ASC",
		"RETURN", "3", fieldDistance, fieldSourceID, fieldContent,
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	}
}

// parseSearchResults reads the RESP2 FT.SEARCH reply:
// [total, key1, [field, value, ...], key2, [...], ...].
func parseSearchResults(result any, prefix string) ([]domain.VectorMatch, error) {
	values, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected FT.SEARCH reply %T", result)
	}

	matches := []domain.VectorMatch{}
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]any)
		if !ok {
			continue
		}

		m := domain.VectorMatch{ID: strings.TrimPrefix(key, prefix)}
		for j := 0; j+1 < len(fields); j += 2 {
			name, _ := fields[j].(string)
			val := toString(fields[j+1])
			switch name {
			case fieldDistance:
				d, err := strconv.ParseFloat(val, 64)
				if err != nil {
					return nil, fmt.Errorf("parsing distance %q: %w", val, err)
				}
				m.Score = 1 - d
			case fieldSourceID:
				m.Metadata.SourceID = val
			case fieldContent:
				m.Metadata.Content = val
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Delete removes the hashes of the given records.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.prefix+id)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: redis: DEL: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Reset drops the index with its documents and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	err := s.client.Do(ctx, "FT.DROPINDEX", s.index, "DD").Err()
	if err != nil && !isUnknownIndex(err) {
		return fmt.Errorf("%w: redis: FT.DROPINDEX: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return s.ensureIndex(ctx)
}

// Count returns num_docs from FT.INFO.
func (s *Store) Count(ctx context.Context) (int, error) {
	info, err := s.client.Do(ctx, "FT.INFO", s.index).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: redis: FT.INFO: %v", domain.ErrVectorStoreUnavailable, err)
	}
	n, ok := infoValue(info, "num_docs")
	if !ok {
		return 0, nil
	}
	count, err := strconv.Atoi(toString(n))
	if err != nil {
		return 0, fmt.Errorf("%w: redis: parsing num_docs: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return count, nil
}

// Dimensions returns the vector size of the index.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// encodeVector packs values as little-endian FLOAT32, the layout RediSearch expects.
func encodeVector(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, f := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// infoValue finds key in a flat RESP2 [k, v, k, v, ...] FT.INFO reply.
func infoValue(info any, key string) (any, bool) {
	values, ok := info.([]any)
	if !ok {
		return nil, false
	}
	for i := 0; i+1 < len(values); i += 2 {
		if k, ok := values[i].(string); ok && k == key {
			return values[i+1], true
		}
	}
	return nil, false
}

// parseInfoDimension digs the vector field's dimension out of the FT.INFO attributes list.
func parseInfoDimension(info any) (int, bool) {
	attrs, ok := infoValue(info, "attributes")
	if !ok {
		return 0, false
	}
	list, ok := attrs.([]any)
	if !ok {
		return 0, false
	}
	for _, a := range list {
		fields, ok := a.([]any)
		if !ok {
			continue
		}
		isVector := false
		dim := 0
		for j := 0; j+1 < len(fields); j++ {
			switch strings.ToLower(toString(fields[j])) {
			case "type":
				isVector = strings.EqualFold(toString(fields[j+1]), "VECTOR")
			case "dim":
				dim, _ = strconv.Atoi(toString(fields[j+1]))
			}
		}
		if isVector && dim > 0 {
			return dim, true
		}
	}
	return 0, false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
