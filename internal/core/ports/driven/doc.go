// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Document and chunk persistence
//   - JobStore: Ingestion job persistence
//   - VectorIndex: Vector storage and nearest-neighbour search
//   - EmbeddingService: Turns text into vectors
//   - MemberRegistry: Read-only member profiles
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - LLMService: Text generation. Without it, ask fails with ErrModelUnavailable
//     while retrieval, ingestion and skill matching keep working.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
