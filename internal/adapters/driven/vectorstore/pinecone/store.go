// Package pinecone provides a vector store backed by a Pinecone serverless index over REST.
package pinecone

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultControlURL = "https://api.pinecone.io"
	DefaultTimeout    = 30 * time.Second
	apiVersion        = "2024-07"
	upsertBatchSize   = 100
	deleteBatchSize   = 1000
	indexMetric       = "cosine"
	readyPollInterval = 2 * time.Second
)

// Config holds configuration for the Pinecone vector store.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// Index is the index name (default: chatbot2).
	Index string

	// Namespace partitions vectors within the index. Empty is the default namespace.
	Namespace string

	// Dimensions is the vector size of the index.
	Dimensions int

	// Cloud and Region place a newly created serverless index (default: aws, us-east-1).
	Cloud  string
	Region string

	// ControlURL is the control-plane base URL (default: https://api.pinecone.io).
	ControlURL string

	// Host overrides the data-plane host returned by describe_index.
	Host string

	// Timeout is the HTTP client timeout (default: 30s).
	Timeout time.Duration
}

// Store implements driven.VectorStore against the Pinecone data plane.
type Store struct {
	control    *httpjson.Client
	data       *httpjson.Client
	header     http.Header
	timeout    time.Duration
	host       string
	index      string
	namespace  string
	dimensions int
	cloud      string
	region     string
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type createIndexRequest struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      indexSpec `json:"spec"`
}

type indexSpec struct {
	Serverless serverlessSpec `json:"serverless"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

type vector struct {
	ID       string                `json:"id"`
	Values   []float32             `json:"values"`
	Metadata domain.VectorMetadata `json:"metadata"`
}

type upsertRequest struct {
	Vectors   []vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string                `json:"id"`
		Score    float64               `json:"score"`
		Metadata domain.VectorMetadata `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	IDs       []string `json:"ids,omitempty"`
	DeleteAll bool     `json:"deleteAll,omitempty"`
	Namespace string   `json:"namespace,omitempty"`
}

type statsResponse struct {
	Namespaces map[string]struct {
		VectorCount int `json:"vectorCount"`
	} `json:"namespaces"`
	Dimension        int `json:"dimension"`
	TotalVectorCount int `json:"totalVectorCount"`
}

// New creates a Pinecone store. Call EnsureIndex before use unless Host is set
// to a known data-plane host.
func New(cfg Config) (*Store, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: pinecone: API key is required", domain.ErrInvalidConfiguration)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: pinecone: dimensions must be positive", domain.ErrInvalidConfiguration)
	}
	if cfg.Index == "" {
		cfg.Index = domain.DefaultIndexName
	}
	if cfg.Cloud == "" {
		cfg.Cloud = domain.DefaultCloud
	}
	if cfg.Region == "" {
		cfg.Region = domain.DefaultRegion
	}
	if cfg.ControlURL == "" {
		cfg.ControlURL = DefaultControlURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	header := http.Header{}
	header.Set("Api-Key", cfg.APIKey)
	header.Set("X-Pinecone-API-Version", apiVersion)
	header.Set("Accept", "application/json")

	s := &Store{
		control:    httpjson.New("pinecone", cfg.ControlURL, cfg.Timeout, header),
		header:     header,
		timeout:    cfg.Timeout,
		index:      cfg.Index,
		namespace:  cfg.Namespace,
		dimensions: cfg.Dimensions,
		cloud:      cfg.Cloud,
		region:     cfg.Region,
	}
	s.setHost(cfg.Host)
	return s, nil
}

// setHost points the data-plane client at host. An empty host leaves it unset.
func (s *Store) setHost(host string) {
	s.host = normaliseHost(host)
	if s.host != "" {
		s.data = httpjson.New("pinecone", s.host, s.timeout, s.header)
	}
}

func normaliseHost(host string) string {
	host = strings.TrimRight(host, "/")
	if host == "" || strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

// EnsureIndex creates a serverless cosine index when it is missing, waits
// until it is ready, and records its data-plane host.
func (s *Store) EnsureIndex(ctx context.Context) error {
	desc, err := s.describeIndex(ctx)
	if httpjson.IsStatus(err, http.StatusNotFound) {
		req := createIndexRequest{
			Name:      s.index,
			Dimension: s.dimensions,
			Metric:    indexMetric,
			Spec:      indexSpec{Serverless: serverlessSpec{Cloud: s.cloud, Region: s.region}},
		}
		if err := s.control.Post(ctx, "/indexes", req, nil); err != nil {
			return fmt.Errorf("%w: pinecone: creating index %s: %v", domain.ErrVectorStoreUnavailable, s.index, err)
		}
		desc, err = s.describeIndex(ctx)
	}
	if err != nil {
		return fmt.Errorf("%w: pinecone: describing index %s: %v", domain.ErrVectorStoreUnavailable, s.index, err)
	}

	for !desc.Status.Ready {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: pinecone: index %s not ready: %v", domain.ErrVectorStoreUnavailable, s.index, ctx.Err())
		case <-time.After(readyPollInterval):
		}
		if desc, err = s.describeIndex(ctx); err != nil {
			return fmt.Errorf("%w: pinecone: describing index %s: %v", domain.ErrVectorStoreUnavailable, s.index, err)
		}
	}

	if desc.Metric != indexMetric {
		return fmt.Errorf("%w: pinecone index %s uses the %s metric, expected %s",
			domain.ErrInvalidConfiguration, s.index, desc.Metric, indexMetric)
	}
	if desc.Dimension != 0 && desc.Dimension != s.dimensions {
		return fmt.Errorf("%w: %w: pinecone index %s has %d dimensions, expected %d",
			domain.ErrInvalidConfiguration, domain.ErrDimensionMismatch, s.index, desc.Dimension, s.dimensions)
	}
	if s.host == "" {
		s.setHost(desc.Host)
	}
	return nil
}

func (s *Store) describeIndex(ctx context.Context) (*indexDescription, error) {
	var desc indexDescription
	if err := s.control.Get(ctx, "/indexes/"+s.index, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// Upsert writes records in batches of 100.
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
	if err := s.requireHost(); err != nil {
		return err
	}

	for start := 0; start < len(records); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(records))
		req := upsertRequest{Namespace: s.namespace, Vectors: make([]vector, 0, end-start)}
		for _, r := range records[start:end] {
			req.Vectors = append(req.Vectors, vector{ID: r.ID, Values: r.Values, Metadata: r.Metadata})
		}
		if err := s.data.Post(ctx, "/vectors/upsert", req, nil); err != nil {
			return fmt.Errorf("%w: pinecone: upsert: %v", domain.ErrVectorStoreUnavailable, err)
		}
	}
	return nil
}

// Query returns up to topK matches with metadata. Pinecone reports cosine similarity directly.
func (s *Store) Query(ctx context.Context, values []float32, topK int) ([]domain.VectorMatch, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be at least 1, got %d", domain.ErrInvalidParameter, topK)
	}
	if len(values) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d values, store expects %d",
			domain.ErrInvalidParameter, len(values), s.dimensions)
	}
	if err := s.requireHost(); err != nil {
		return nil, err
	}

	var resp queryResponse
	req := queryRequest{Vector: values, TopK: topK, IncludeMetadata: true, Namespace: s.namespace}
	if err := s.data.Post(ctx, "/query", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: pinecone: query: %v", domain.ErrVectorStoreUnavailable, err)
	}

	matches := make([]domain.VectorMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, domain.VectorMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

// Delete removes vectors by ID in batches of 1000, the most a delete request takes.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.requireHost(); err != nil {
		return err
	}
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		req := deleteRequest{IDs: ids[start:end], Namespace: s.namespace}
		err := s.data.Post(ctx, "/vectors/delete", req, nil)
		if err != nil && !httpjson.IsStatus(err, http.StatusNotFound) {
			return fmt.Errorf("%w: pinecone: delete: %v", domain.ErrVectorStoreUnavailable, err)
		}
	}
	return nil
}

// Reset deletes every vector in the namespace. A namespace that does not exist yet counts as reset.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.requireHost(); err != nil {
		return err
	}
	err := s.data.Post(ctx, "/vectors/delete", deleteRequest{DeleteAll: true, Namespace: s.namespace}, nil)
	if err != nil && !httpjson.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: pinecone: delete all: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Count returns the vector count of the configured namespace.
func (s *Store) Count(ctx context.Context) (int, error) {
	stats, err := s.stats(ctx)
	if err != nil {
		return 0, err
	}
	if ns, ok := stats.Namespaces[s.namespace]; ok {
		return ns.VectorCount, nil
	}
	if s.namespace == "" && len(stats.Namespaces) == 0 {
		return stats.TotalVectorCount, nil
	}
	return 0, nil
}

func (s *Store) stats(ctx context.Context) (*statsResponse, error) {
	if err := s.requireHost(); err != nil {
		return nil, err
	}
	var stats statsResponse
	if err := s.data.Post(ctx, "/describe_index_stats", struct{}{}, &stats); err != nil {
		return nil, fmt.Errorf("%w: pinecone: describe_index_stats: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return &stats, nil
}

// Dimensions returns the vector size of the index.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// Ping checks the data plane answers describe_index_stats.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.stats(ctx)
	return err
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) requireHost() error {
	if s.data == nil {
		return fmt.Errorf("%w: pinecone: index host unknown, EnsureIndex was not called", domain.ErrVectorStoreUnavailable)
	}
	return nil
}
