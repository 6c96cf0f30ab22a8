package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func decodeVector(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

func TestEncodeVector_RoundTrip(t *testing.T) {
	in := []float32{0.5, -1, 3.25}
	buf := encodeVector(in)

	assert.Len(t, buf, 12)
	assert.Equal(t, in, decodeVector(buf))
}

func TestKNNQuery(t *testing.T) {
	assert.Equal(t, "*=>[KNN 5 @vector $vec AS distance]", knnQuery(5))
}

func TestCreateIndexArgs(t *testing.T) {
	args := createIndexArgs("chatbot2", "chatbot2:", 384)

	assert.Equal(t, "FT.CREATE", args[0])
	assert.Contains(t, args, "HNSW")
	assert.Contains(t, args, "COSINE")
	assert.Contains(t, args, "384")
	assert.Contains(t, args, "chatbot2:")
}

func TestSearchArgs(t *testing.T) {
	args := searchArgs("idx", []byte{1, 2, 3, 4}, 3)

	assert.Equal(t, "FT.SEARCH", args[0])
	assert.Equal(t, "idx", args[1])
	assert.Equal(t, knnQuery(3), args[2])
	assert.Contains(t, args, "DIALECT")
}

func TestParseSearchResults(t *testing.T) {
	reply := []any{
		int64(2),
		"chatbot2:chunk_a", []any{"distance", "0.1", "source_id", "s1", "content", "refunds within 30 days"},
		"chatbot2:chunk_b", []any{"distance", "0.4", "source_id", "s2", "content", "shipping"},
	}

	matches, err := parseSearchResults(reply, "chatbot2:")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "chunk_a", matches[0].ID)
	assert.InDelta(t, 0.9, matches[0].Score, 1e-9)
	assert.Equal(t, domain.VectorMetadata{SourceID: "s1", Content: "refunds within 30 days"}, matches[0].Metadata)
	assert.InDelta(t, 0.6, matches[1].Score, 1e-9)
}

func TestParseSearchResults_Empty(t *testing.T) {
	matches, err := parseSearchResults([]any{int64(0)}, "p:")
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestParseSearchResults_BadShape(t *testing.T) {
	_, err := parseSearchResults("oops", "p:")
	assert.Error(t, err)

	_, err = parseSearchResults([]any{int64(1), "p:x", []any{"distance", "nan?"}}, "p:")
	assert.Error(t, err)
}

func TestInfoHelpers(t *testing.T) {
	info := []any{
		"index_name", "chatbot2",
		"attributes", []any{
			[]any{"identifier", "source_id", "attribute", "source_id", "type", "TAG"},
			[]any{"identifier", "vector", "attribute", "vector", "type", "VECTOR", "algorithm", "HNSW", "dim", int64(384)},
		},
		"num_docs", "12",
	}

	n, ok := infoValue(info, "num_docs")
	require.True(t, ok)
	assert.Equal(t, "12", toString(n))

	dim, ok := parseInfoDimension(info)
	require.True(t, ok)
	assert.Equal(t, 384, dim)

	_, ok = infoValue(info, "missing")
	assert.False(t, ok)
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{Dimensions: 384})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = New(ctx, Config{URL: "redis://localhost:6379"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = New(ctx, Config{URL: "http://not-redis", Dimensions: 384})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, (&Store{}).Delete(ctx, nil))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()
	s := &Store{client: client, prefix: "chatbot2:"}
	assert.ErrorIs(t, s.Delete(ctx, []string{"chunk_a"}), domain.ErrVectorStoreUnavailable)
}

func TestIsUnknownIndex(t *testing.T) {
	assert.True(t, isUnknownIndex(errors.New("Unknown Index name")))
	assert.True(t, isUnknownIndex(errors.New("chatbot2: no such index")))
	assert.False(t, isUnknownIndex(errors.New("connection refused")))
}
