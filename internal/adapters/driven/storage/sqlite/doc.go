// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: documents and their chunks
//   - VectorIndex: chunk vectors, published per document in one transaction
//   - JobStore: ingestion job progress
//   - MemberRegistry: the local members table
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Chunks and vectors reference their document with ON DELETE CASCADE, so
// deleting a document can never leave orphaned vectors behind.
//
// # Data Location
//
// By default, the database is stored at ~/.sage/data/sage.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
