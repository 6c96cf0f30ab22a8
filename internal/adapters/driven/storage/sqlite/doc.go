// Package sqlite stores sources, pages, media links and chunks in a single
// SQLite file using the pure Go modernc.org/sqlite driver.
//
// The schema lives in migrations/ and is upgraded on open. Each migration
// runs in a transaction with its schema_migrations row. The file defaults to
// ~/.sercha-rag/data/metadata.db and is opened in WAL mode with foreign keys
// on, so deleting a source cascades to its pages, media and chunks.
package sqlite
