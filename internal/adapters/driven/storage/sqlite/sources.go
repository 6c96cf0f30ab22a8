package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.SourceStore = (*sourceStore)(nil)

// sourceStore keeps sources with their pages, media links and chunks.
type sourceStore struct {
	db *sql.DB
}

const (
	selectSource = `SELECT id, type, base_url, title, page_content, internal_links,
		page_count, source_key, created_at, updated_at FROM sources`

	// The first creation time survives a replace.
	upsertSource = `INSERT INTO sources (id, type, base_url, title, page_content,
		internal_links, page_count, source_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type, base_url = excluded.base_url, title = excluded.title,
			page_content = excluded.page_content, internal_links = excluded.internal_links,
			page_count = excluded.page_count, source_key = excluded.source_key,
			updated_at = excluded.updated_at`

	insertPage = `INSERT INTO pages (id, source_id, url, content, created_at) VALUES (?, ?, ?, ?, ?)`

	selectPages = `SELECT id, source_id, url, content, created_at
		FROM pages WHERE source_id = ? ORDER BY rowid`

	// A media URL is recorded once per source; the first sighting wins.
	insertMedia = `INSERT INTO media (id, source_id, page_url, url, type, meta_info)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, url) DO NOTHING`

	selectMedia = `SELECT id, source_id, page_url, url, type, meta_info
		FROM media WHERE source_id = ? ORDER BY rowid`
)

// Replace writes the source row and swaps its pages, media and chunks in
// one transaction.
func (s *sourceStore) Replace(ctx context.Context, content domain.SourceContent) ([]string, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}
	src := content.Source
	links, err := json.Marshal(append([]string{}, src.InternalLinks...))
	if err != nil {
		return nil, fmt.Errorf("encode internal links: %w", err)
	}

	now := time.Now().UTC()
	var stale []string
	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		previous, err := chunkIDs(ctx, tx, src.ID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, upsertSource,
			src.ID, src.Type, src.BaseURL, src.Title, src.PageContent,
			string(links), src.PageCount, src.Key, timeOr(src.CreatedAt, now), now)
		if err != nil {
			return fmt.Errorf("save source: %w", err)
		}
		for _, table := range []string{"pages", "media", "chunks"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE source_id = ?`, src.ID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		err = execEach(ctx, tx, insertPage, content.Pages, func(p domain.Page) []any {
			return []any{p.ID, p.SourceID, p.URL, p.Content, timeOr(p.CreatedAt, now)}
		})
		if err != nil {
			return fmt.Errorf("save pages: %w", err)
		}
		err = execEach(ctx, tx, insertMedia, content.Media, func(m domain.Media) []any {
			return []any{m.ID, m.SourceID, m.PageURL, m.URL, string(m.Type), m.MetaInfo}
		})
		if err != nil {
			return fmt.Errorf("save media: %w", err)
		}
		err = execEach(ctx, tx, insertChunk, content.Chunks, func(c domain.Chunk) []any {
			return []any{c.ID, c.SourceID, c.PageID, c.Content, c.Position,
				encodeEmbedding(c.Embedding), timeOr(c.CreatedAt, now)}
		})
		if err != nil {
			return fmt.Errorf("save chunks: %w", err)
		}

		stale = content.StaleChunkIDs(previous)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replace source %s: %w", src.ID, err)
	}
	return stale, nil
}

func chunkIDs(ctx context.Context, tx *sql.Tx, sourceID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM chunks WHERE source_id = ? ORDER BY position`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list chunks of %s: %w", sourceID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *sourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	source, err := scanSource(s.db.QueryRowContext(ctx, selectSource+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func (s *sourceStore) FindByKey(ctx context.Context, key string) (*domain.Source, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	query := selectSource + ` WHERE source_key = ? ORDER BY created_at DESC, id LIMIT 1`
	source, err := scanSource(s.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find source by key: %w", err)
	}
	return &source, nil
}

// List returns all sources, newest first.
func (s *sourceStore) List(ctx context.Context) ([]domain.Source, error) {
	sources, err := selectAll(ctx, s.db, scanSource, selectSource+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// GetPages returns the pages of a source in insertion order.
func (s *sourceStore) GetPages(ctx context.Context, sourceID string) ([]domain.Page, error) {
	pages, err := selectAll(ctx, s.db, scanPage, selectPages, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get pages of %s: %w", sourceID, err)
	}
	return pages, nil
}

// ListMedia returns the media links of a source in discovery order.
func (s *sourceStore) ListMedia(ctx context.Context, sourceID string) ([]domain.Media, error) {
	media, err := selectAll(ctx, s.db, scanMedia, selectMedia, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list media of %s: %w", sourceID, err)
	}
	return media, nil
}

func scanSource(row rowScanner) (domain.Source, error) {
	var (
		src     domain.Source
		links   string
		created sql.NullTime
		updated sql.NullTime
	)
	err := row.Scan(&src.ID, &src.Type, &src.BaseURL, &src.Title, &src.PageContent,
		&links, &src.PageCount, &src.Key, &created, &updated)
	if err != nil {
		return src, err
	}
	if links != "" {
		if err := json.Unmarshal([]byte(links), &src.InternalLinks); err != nil {
			return src, fmt.Errorf("decode internal links of %s: %w", src.ID, err)
		}
	}
	src.CreatedAt, src.UpdatedAt = timeFrom(created), timeFrom(updated)
	return src, nil
}

func scanPage(row rowScanner) (domain.Page, error) {
	var (
		p       domain.Page
		created sql.NullTime
	)
	err := row.Scan(&p.ID, &p.SourceID, &p.URL, &p.Content, &created)
	p.CreatedAt = timeFrom(created)
	return p, err
}

func scanMedia(row rowScanner) (domain.Media, error) {
	var (
		m    domain.Media
		kind string
	)
	err := row.Scan(&m.ID, &m.SourceID, &m.PageURL, &m.URL, &kind, &m.MetaInfo)
	m.Type = domain.MediaType(kind)
	return m, err
}
