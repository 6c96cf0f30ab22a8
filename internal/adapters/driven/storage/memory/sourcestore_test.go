package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func replace(t *testing.T, store *Store, content domain.SourceContent) []string {
	t.Helper()
	stale, err := store.Replace(context.Background(), content)
	require.NoError(t, err)
	return stale
}

func TestStore_ReplaceAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	replace(t, store, domain.SourceContent{
		Source: domain.Source{ID: "s1", Title: "Home", InternalLinks: []string{"https://a.com/x"}},
	})

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Home", got.Title)
	assert.Equal(t, []string{"https://a.com/x"}, got.InternalLinks)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_ReplaceKeepsCreatedAt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	replace(t, store, domain.SourceContent{Source: domain.Source{ID: "s1", CreatedAt: created}})
	replace(t, store, domain.SourceContent{Source: domain.Source{ID: "s1", Title: "Updated"}})

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, "Updated", got.Title)
}

func TestStore_GetNotFound(t *testing.T) {
	_, err := NewStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	replace(t, store, domain.SourceContent{Source: domain.Source{ID: "old", CreatedAt: base}})
	replace(t, store, domain.SourceContent{Source: domain.Source{ID: "new", CreatedAt: base.Add(time.Hour)}})

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
}

func TestStore_ReplaceSwapsContent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	replace(t, store, domain.SourceContent{
		Source: domain.Source{ID: "s1"},
		Pages:  []domain.Page{{ID: "p1", SourceID: "s1", Content: "one"}},
		Media: []domain.Media{
			{ID: "m1", SourceID: "s1", URL: "https://a.com/logo.png", Type: domain.MediaImage},
			{ID: "m2", SourceID: "s1", URL: "https://a.com/logo.png", Type: domain.MediaImage, MetaInfo: "Logo"},
			{ID: "m3", SourceID: "s1", URL: "https://a.com/doc.pdf", Type: domain.MediaPDF},
		},
		Chunks: []domain.Chunk{
			{ID: "c1", SourceID: "s1", Content: "a", Position: 0},
			{ID: "c2", SourceID: "s1", Content: "b", Position: 1},
		},
	})

	media, err := store.ListMedia(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, media, 2, "a media URL is kept once")
	assert.Equal(t, "m1", media[0].ID)
	assert.Equal(t, domain.MediaPDF, media[1].Type)

	stale := replace(t, store, domain.SourceContent{
		Source: domain.Source{ID: "s1"},
		Pages:  []domain.Page{{ID: "p2", SourceID: "s1", Content: "two"}},
		Chunks: []domain.Chunk{{ID: "c3", SourceID: "s1", Content: "c", Position: 0}},
	})
	assert.Equal(t, []string{"c1", "c2"}, stale)

	pages, err := store.GetPages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "two", pages[0].Content)

	media, err = store.ListMedia(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, media)

	chunks, err := store.GetChunks(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c3", chunks[0].ID)
}

func TestStore_ReplaceRejectsBadContent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	replace(t, store, domain.SourceContent{
		Source: domain.Source{ID: "s2"},
		Chunks: []domain.Chunk{{ID: "taken", SourceID: "s2"}},
	})

	_, err := store.Replace(ctx, domain.SourceContent{
		Source: domain.Source{ID: "s1"},
		Pages:  []domain.Page{{ID: "p1", SourceID: "ghost"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = store.Replace(ctx, domain.SourceContent{
		Source: domain.Source{ID: "s1"},
		Chunks: []domain.Chunk{{ID: "taken", SourceID: "s1"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "a rejected replace writes nothing")
}

func TestStore_FindByKey(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	replace(t, store, domain.SourceContent{Source: domain.Source{ID: "s1", Key: "file:/a.html"}})
	replace(t, store, domain.SourceContent{Source: domain.Source{ID: "s2"}})

	got, err := store.FindByKey(ctx, "file:/a.html")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	_, err = store.FindByKey(ctx, "file:/b.html")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.FindByKey(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
