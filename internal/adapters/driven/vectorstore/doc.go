// Package vectorstore holds the driven.VectorStore adapters.
//
// Every adapter stores domain.VectorRecord values keyed by the deterministic
// "chunk_<id>" record ID and ranks by cosine similarity. The vector store is a
// projection of the chunk store and can always be rebuilt with a reindex.
//
//   - memory: in-process, with an optional JSON snapshot file
//   - redis: Redis Stack (RediSearch HNSW index)
//   - pinecone: Pinecone serverless over REST
//   - pgvector: PostgreSQL with the vector extension
package vectorstore
