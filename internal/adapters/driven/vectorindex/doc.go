// Package vectorindex provides a pure-Go cosine similarity index.
//
// The index is exact (brute force). Community corpora are small, and exact
// scoring keeps query results reproducible, which ingestion tests rely on.
// Vectors are published per document in one copy-on-write swap, so
// concurrent queries see either all of a document's vectors or none.
package vectorindex
