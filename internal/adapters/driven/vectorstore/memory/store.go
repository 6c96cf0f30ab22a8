// Package memory provides an in-process vector store with an optional JSON snapshot.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store keeps vector records in a map and answers queries by brute-force cosine similarity.
type Store struct {
	mu         sync.RWMutex
	dimensions int
	records    map[string]domain.VectorRecord
	snapshot   string
	dirty      bool
}

type snapshotFile struct {
	Dimensions int                   `json:"dimensions"`
	Records    []domain.VectorRecord `json:"records"`
}

// New creates a memory store. When snapshotPath is non-empty, records are
// loaded from it if it exists and written back on Close.
func New(dimensions int, snapshotPath string) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidConfiguration, dimensions)
	}

	s := &Store{
		dimensions: dimensions,
		records:    make(map[string]domain.VectorRecord),
		snapshot:   snapshotPath,
	}
	if snapshotPath != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.snapshot)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: reading snapshot: %v", domain.ErrVectorStoreUnavailable, err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: parsing snapshot %s: %v", domain.ErrVectorStoreUnavailable, s.snapshot, err)
	}
	if snap.Dimensions != s.dimensions {
		return fmt.Errorf("%w: %w: snapshot has %d dimensions, store expects %d",
			domain.ErrInvalidConfiguration, domain.ErrDimensionMismatch, snap.Dimensions, s.dimensions)
	}
	for _, r := range snap.Records {
		s.records[r.ID] = r
	}
	return nil
}

// Upsert writes records, overwriting existing IDs.
func (s *Store) Upsert(_ context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Values) != s.dimensions {
			return fmt.Errorf("%w: record %s has %d values, store expects %d",
				domain.ErrInvalidParameter, r.ID, len(r.Values), s.dimensions)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.Values = append([]float32(nil), r.Values...)
		s.records[r.ID] = r
	}
	s.dirty = true
	return nil
}

// Query returns up to topK records by descending cosine similarity. Ties break on ID.
func (s *Store) Query(_ context.Context, vector []float32, topK int) ([]domain.VectorMatch, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be at least 1, got %d", domain.ErrInvalidParameter, topK)
	}
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d values, store expects %d",
			domain.ErrInvalidParameter, len(vector), s.dimensions)
	}

	s.mu.RLock()
	matches := make([]domain.VectorMatch, 0, len(s.records))
	for _, r := range s.records {
		matches = append(matches, domain.VectorMatch{
			ID:       r.ID,
			Score:    Cosine(vector, r.Values),
			Metadata: r.Metadata,
		})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Delete removes the records with the given IDs.
func (s *Store) Delete(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			delete(s.records, id)
			s.dirty = true
		}
	}
	return nil
}

// Reset removes every record.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]domain.VectorRecord)
	s.dirty = true
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Dimensions returns the vector size the store accepts.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Flush writes the snapshot file if there are unsaved changes.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == "" || !s.dirty {
		return nil
	}

	snap := snapshotFile{Dimensions: s.dimensions, Records: make([]domain.VectorRecord, 0, len(s.records))}
	for _, r := range s.records {
		snap.Records = append(snap.Records, r)
	}
	sort.Slice(snap.Records, func(i, j int) bool { return snap.Records[i].ID < snap.Records[j].ID })

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.snapshot), 0700); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp := s.snapshot + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.snapshot); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	s.dirty = false
	return nil
}

// Close flushes the snapshot.
func (s *Store) Close() error {
	return s.Flush()
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero norm.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
