package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{"ollama is valid", AIProviderOllama, true},
		{"openai is valid", AIProviderOpenAI, true},
		{"hashing is valid", AIProviderHashing, true},
		{"anthropic has no embeddings", AIProvider("anthropic"), false},
		{"empty is invalid", AIProvider(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_Traits(t *testing.T) {
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderHashing.IsLocal())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestSummarizerBackend_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		backend SummarizerBackend
		valid   bool
		hosted  bool
	}{
		{"openai", SummarizerOpenAI, true, true},
		{"anthropic", SummarizerAnthropic, true, true},
		{"ollama", SummarizerOllama, true, false},
		{"unknown", SummarizerBackend("gemini"), false, false},
		{"empty", SummarizerBackend(""), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.backend.IsValid())
			assert.Equal(t, tt.hosted, tt.backend.IsHosted())
			assert.Equal(t, tt.hosted, tt.backend.RequiresAPIKey())
		})
	}
}

func TestVectorStoreProvider_Traits(t *testing.T) {
	for _, p := range AllVectorStoreProviders() {
		assert.True(t, p.IsValid(), p)
		assert.NotEqual(t, unknownDescription, p.Description())
	}
	assert.True(t, VectorStorePinecone.RequiresAPIKey())
	assert.True(t, VectorStoreRedis.RequiresURL())
	assert.True(t, VectorStorePgvector.RequiresURL())
	assert.False(t, VectorStoreMemory.RequiresURL())
	assert.False(t, VectorStoreProvider("milvus").IsValid())
}

func TestVectorStoreSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings VectorStoreSettings
		expected bool
	}{
		{"memory", VectorStoreSettings{Provider: VectorStoreMemory, Dimensions: 384}, true},
		{"zero dimensions", VectorStoreSettings{Provider: VectorStoreMemory}, false},
		{"pinecone without key", VectorStoreSettings{Provider: VectorStorePinecone, Dimensions: 384}, false},
		{"pinecone with key", VectorStoreSettings{Provider: VectorStorePinecone, Dimensions: 384, APIKey: "k"}, true},
		{"redis without url", VectorStoreSettings{Provider: VectorStoreRedis, Dimensions: 384}, false},
		{"redis with url", VectorStoreSettings{Provider: VectorStoreRedis, Dimensions: 384, URL: "redis://localhost:6379"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestSummarizerSettings_IsConfigured(t *testing.T) {
	assert.True(t, SummarizerSettings{Backend: SummarizerOllama}.IsConfigured())
	assert.False(t, SummarizerSettings{Backend: SummarizerOpenAI}.IsConfigured())
	assert.True(t, SummarizerSettings{Backend: SummarizerAnthropic, APIKey: "sk"}.IsConfigured())
	assert.False(t, SummarizerSettings{Backend: "other"}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderHashing, s.Embedding.Provider)
	assert.True(t, s.Embedding.IsConfigured())
	assert.Equal(t, VectorStoreMemory, s.VectorStore.Provider)
	assert.Equal(t, 384, s.VectorStore.Dimensions)
	assert.Equal(t, "chatbot2", s.VectorStore.Index)
	assert.Equal(t, 500, s.Chunker.ChunkSize)
	assert.Equal(t, 50, s.Chunker.Overlap)
	assert.Equal(t, 5, s.Pipeline.TopK)
	assert.Equal(t, DefaultVectorStoreTimeout, s.Pipeline.VectorStoreTimeout)
	assert.Equal(t, DefaultSummarizerTimeout, s.Pipeline.SummarizerTimeout)
	assert.Equal(t, SummarizerOllama, s.Summarizer.Backend)
}

func TestEmbeddingDimensions_AllMiniLM(t *testing.T) {
	assert.Equal(t, 384, EmbeddingDimensions()["all-minilm"])
}
