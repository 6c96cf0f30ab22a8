package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

// createTestSource stores a source with no pages or chunks.
func createTestSource(t *testing.T, store *Store, sourceID string) {
	t.Helper()
	replace(t, store, domain.SourceContent{Source: domain.Source{
		ID:      sourceID,
		Type:    "website",
		BaseURL: "https://example.com",
		Title:   "Example " + sourceID,
	}})
}

func replace(t *testing.T, store *Store, content domain.SourceContent) []string {
	t.Helper()
	stale, err := store.SourceStore().Replace(context.Background(), content)
	require.NoError(t, err)
	return stale
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store := newTestStore(t)

	assert.Equal(t, "metadata.db", filepath.Base(store.Path()))
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)

	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	createTestSource(t, first, "s1")
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.SourceStore().Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Example s1", got.Title)
}

func TestSourceStore_ReplaceAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	src := domain.Source{
		ID:            "s1",
		Type:          "website",
		BaseURL:       "https://example.com",
		Title:         "Home",
		PageContent:   "Welcome",
		InternalLinks: []string{"https://example.com/about", "https://example.com/team"},
		PageCount:     2,
		Key:           "file:/tmp/home.html",
	}
	stale := replace(t, store, domain.SourceContent{Source: src})
	assert.Empty(t, stale)

	got, err := store.SourceStore().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "website", got.Type)
	assert.Equal(t, "https://example.com", got.BaseURL)
	assert.Equal(t, "Home", got.Title)
	assert.Equal(t, "Welcome", got.PageContent)
	assert.Equal(t, src.InternalLinks, got.InternalLinks)
	assert.Equal(t, 2, got.PageCount)
	assert.Equal(t, "file:/tmp/home.html", got.Key)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSourceStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	got, err := store.SourceStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, got)
}

func TestSourceStore_ListEmpty(t *testing.T) {
	store := newTestStore(t)

	all, err := store.SourceStore().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSourceStore_ReplaceStoresContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	replace(t, store, domain.SourceContent{
		Source: domain.Source{ID: "s1"},
		Pages: []domain.Page{
			{ID: "p1", SourceID: "s1", URL: "https://example.com", Content: "home"},
			{ID: "p2", SourceID: "s1", URL: "https://example.com/about", Content: "about"},
		},
		Media: []domain.Media{
			{ID: "m1", SourceID: "s1", PageURL: "https://example.com", URL: "https://example.com/logo.png", Type: domain.MediaImage},
			{ID: "m2", SourceID: "s1", PageURL: "https://example.com", URL: "https://twitter.com/acme", Type: domain.MediaSocial, MetaInfo: "twitter.com"},
			{ID: "m3", SourceID: "s1", PageURL: "https://example.com/about", URL: "https://example.com/logo.png", Type: domain.MediaImage},
		},
		Chunks: []domain.Chunk{
			{ID: "c2", SourceID: "s1", PageID: "p2", Content: "second", Position: 1},
			{ID: "c1", SourceID: "s1", PageID: "p1", Content: "first", Position: 0, Embedding: []float32{0.5, -1.25}},
		},
	})

	pages, err := store.SourceStore().GetPages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "p1", pages[0].ID)
	assert.Equal(t, "about", pages[1].Content)

	media, err := store.SourceStore().ListMedia(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, media, 2, "a media URL is kept once")
	assert.Equal(t, "m1", media[0].ID)
	assert.Equal(t, "https://example.com", media[0].PageURL)
	assert.Equal(t, domain.MediaSocial, media[1].Type)

	chunks, err := store.ChunkStore().GetChunks(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "c1", chunks[0].ID)
	assert.Equal(t, []float32{0.5, -1.25}, chunks[0].Embedding)
	assert.Equal(t, "c2", chunks[1].ID)
	assert.Nil(t, chunks[1].Embedding)
}

func TestSourceStore_ReplaceSwapsContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	replace(t, store, domain.SourceContent{
		Source: domain.Source{ID: "s1", Title: "Old"},
		Pages:  []domain.Page{{ID: "p1", SourceID: "s1", Content: "old"}},
		Media:  []domain.Media{{ID: "m1", SourceID: "s1", URL: "https://example.com/a.png", Type: domain.MediaImage}},
		Chunks: []domain.Chunk{
			{ID: "c1", SourceID: "s1", Content: "old a", Position: 0},
			{ID: "c2", SourceID: "s1", Content: "old b", Position: 1},
		},
	})
	first, err := store.SourceStore().Get(ctx, "s1")
	require.NoError(t, err)

	stale := replace(t, store, domain.SourceContent{
		Source: domain.Source{ID: "s1", Title: "New"},
		Pages:  []domain.Page{{ID: "p2", SourceID: "s1", Content: "new"}},
		Chunks: []domain.Chunk{
			{ID: "c2", SourceID: "s1", Content: "kept", Position: 0},
			{ID: "c3", SourceID: "s1", Content: "new", Position: 1},
		},
	})
	assert.Equal(t, []string{"c1"}, stale)

	got, err := store.SourceStore().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.True(t, got.CreatedAt.Equal(first.CreatedAt), "creation time survives a replace")

	pages, err := store.SourceStore().GetPages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "p2", pages[0].ID)

	media, err := store.SourceStore().ListMedia(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, media)

	chunks, err := store.ChunkStore().GetChunks(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"c2", "c3"}, []string{chunks[0].ID, chunks[1].ID})

	all, err := store.SourceStore().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSourceStore_ReplaceRejectsForeignItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SourceStore().Replace(ctx, domain.SourceContent{
		Source: domain.Source{ID: "s1"},
		Pages:  []domain.Page{{ID: "p1", SourceID: "ghost"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = store.SourceStore().Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceStore_ReplaceIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	replace(t, store, domain.SourceContent{
		Source: domain.Source{ID: "s1", Title: "Original"},
		Chunks: []domain.Chunk{{ID: "c1", SourceID: "s1", Content: "original"}},
	})
	replace(t, store, domain.SourceContent{
		Source: domain.Source{ID: "s2"},
		Chunks: []domain.Chunk{{ID: "taken", SourceID: "s2", Content: "other"}},
	})

	// The second chunk collides with a chunk of s2, failing mid-write.
	_, err := store.SourceStore().Replace(ctx, domain.SourceContent{
		Source: domain.Source{ID: "s1", Title: "Broken"},
		Chunks: []domain.Chunk{
			{ID: "fresh", SourceID: "s1", Content: "fresh", Position: 0},
			{ID: "taken", SourceID: "s1", Content: "clash", Position: 1},
		},
	})
	require.Error(t, err)

	got, err := store.SourceStore().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)

	chunks, err := store.ChunkStore().GetChunks(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "original", chunks[0].Content)
}

func TestSourceStore_FindByKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	replace(t, store, domain.SourceContent{Source: domain.Source{ID: "s1", Key: "file:/a.html"}})
	createTestSource(t, store, "s2")

	got, err := store.SourceStore().FindByKey(ctx, "file:/a.html")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	_, err = store.SourceStore().FindByKey(ctx, "file:/b.html")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.SourceStore().FindByKey(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound, "unkeyed sources never match")
}

func TestChunkStore_GetChunksUnknownSource(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ChunkStore().GetChunks(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore_GetChunksEmpty(t *testing.T) {
	store := newTestStore(t)
	createTestSource(t, store, "s1")

	got, err := store.ChunkStore().GetChunks(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestChunkStore_Embeddings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	replace(t, store, domain.SourceContent{
		Source: domain.Source{ID: "s1"},
		Chunks: []domain.Chunk{{ID: "c1", SourceID: "s1", Content: "text"}},
	})

	require.NoError(t, store.ChunkStore().SaveEmbedding(ctx, "c1", []float32{1, 2, 3}))
	got, err := store.ChunkStore().GetChunks(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, got[0].Embedding)

	assert.ErrorIs(t, store.ChunkStore().SaveEmbedding(ctx, "missing", []float32{1}), domain.ErrNotFound)

	require.NoError(t, store.ChunkStore().ClearEmbeddings(ctx))
	got, err = store.ChunkStore().GetChunks(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, got[0].HasEmbedding())
}

func TestEmbeddingEncoding(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4028235e38}
	assert.Equal(t, in, decodeEmbedding(encodeEmbedding(in)))
	assert.Nil(t, encodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding(nil))
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.up.sql":  {Data: []byte("SELECT 1;")},
		"002_second.up.sql": {Data: []byte("SELECT 1;")},
		"001_first.up.sql":  {Data: []byte("SELECT 1;")},
		"README.md":         {Data: []byte("ignored")},
	}

	all, err := pendingMigrations(fsys, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{all[0].version, all[1].version, all[2].version})

	rest, err := pendingMigrations(fsys, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "010_later.up.sql", rest[0].name)
}

func TestPendingMigrations_BadName(t *testing.T) {
	_, err := pendingMigrations(fstest.MapFS{"initial.up.sql": {}}, 0)
	assert.Error(t, err)
}

func TestStore_UpgradeAppliesNewMigration(t *testing.T) {
	store := newTestStore(t)

	extra := fstest.MapFS{
		"003_notes.up.sql": {Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY);")},
	}
	require.NoError(t, store.upgrade(context.Background(), extra))

	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, version)

	// Already applied, so a second run is a no-op.
	require.NoError(t, store.upgrade(context.Background(), extra))
}
