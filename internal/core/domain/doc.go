// Package domain defines the core business entities for sage.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded document and its indexing lifecycle
//   - Chunk: A bounded span of a document used as the unit of retrieval
//   - IngestionJob: An asynchronous (re)indexing run over a set of documents
//   - Member: A community member and the skills they advertise
//   - Answer: A generated answer together with the sources it cites
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
